package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"facefolio/domain/models"
	"facefolio/domain/repositories"
	"facefolio/infrastructure/faceapi"
	"facefolio/infrastructure/storage"
	"facefolio/infrastructure/vectorindex"
)

// memStore is an in-memory relational store shared by the four repository
// fakes. Its semantics mirror the Postgres implementations closely enough
// that the services cannot tell the difference.
type memStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	photos map[uuid.UUID]*models.Photo
	faces  map[uuid.UUID]*models.Face
	links  map[[2]uuid.UUID]bool // [photoID, faceID]

	failCreatePhoto bool
	failIncrement   bool
	failCreateBatch bool
	failCommitLinks bool
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uuid.UUID]*models.User),
		photos: make(map[uuid.UUID]*models.Photo),
		faces:  make(map[uuid.UUID]*models.Face),
		links:  make(map[[2]uuid.UUID]bool),
	}
}

func (m *memStore) userRepo() repositories.UserRepository       { return &memUserRepo{m} }
func (m *memStore) photoRepo() repositories.PhotoRepository     { return &memPhotoRepo{m} }
func (m *memStore) faceRepo() repositories.FaceRepository       { return &memFaceRepo{m} }
func (m *memStore) galleryRepo() repositories.GalleryRepository { return &memGalleryRepo{m} }

func (m *memStore) addUser(status models.AccountStatus, photoCount, maxPhotos int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &models.User{
		ID:            uuid.New(),
		Name:          "test user",
		Email:         uuid.New().String() + "@example.com",
		PhotoCount:    photoCount,
		MaxPhotos:     maxPhotos,
		AccountStatus: status,
	}
	m.users[user.ID] = user
	return user
}

func (m *memStore) addPhoto(userID uuid.UUID, url string) *models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	photo := &models.Photo{ID: uuid.New(), UserID: userID, PhotoURL: url}
	m.photos[photo.ID] = photo
	return photo
}

func (m *memStore) addFace(userID uuid.UUID, url string, count int) *models.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	face := &models.Face{ID: uuid.New(), UserID: userID, FaceURL: url, FaceCount: count}
	m.faces[face.ID] = face
	return face
}

func (m *memStore) link(photoID, faceID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[[2]uuid.UUID{photoID, faceID}] = true
}

func (m *memStore) linked(photoID, faceID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[[2]uuid.UUID{photoID, faceID}]
}

func (m *memStore) faceByID(id uuid.UUID) *models.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faces[id]
}

func (m *memStore) photoByID(id uuid.UUID) *models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.photos[id]
}

func (m *memStore) userByID(id uuid.UUID) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

// locked helpers, caller holds m.mu

func (m *memStore) linkedFaceIDs(photoID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for pair := range m.links {
		if pair[0] == photoID {
			ids = append(ids, pair[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (m *memStore) linkedPhotoIDs(faceID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for pair := range m.links {
		if pair[1] == faceID {
			ids = append(ids, pair[0])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// collectFace removes every association of the face plus the row itself, and
// appends its URL and vector id to the plan.
func (m *memStore) collectFace(face *models.Face, plan *repositories.CascadePlan) {
	for pair := range m.links {
		if pair[1] == face.ID {
			delete(m.links, pair)
		}
	}
	delete(m.faces, face.ID)
	if face.FaceURL != "" {
		plan.ObjectURLs = append(plan.ObjectURLs, face.FaceURL)
	}
	plan.VectorIDs = append(plan.VectorIDs, face.ID)
}

// memUserRepo

type memUserRepo struct{ m *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := make([]models.User, 0, len(r.m.users))
	for _, user := range r.m.users {
		all = append(all, *user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memUserRepo) IncrementPhotoCount(ctx context.Context, id uuid.UUID, delta int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failIncrement {
		return errors.New("increment failed")
	}
	if user, ok := r.m.users[id]; ok {
		user.PhotoCount += delta
	}
	return nil
}

func (r *memUserRepo) DecrementPhotoCount(ctx context.Context, id uuid.UUID, delta int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if user, ok := r.m.users[id]; ok {
		user.PhotoCount -= delta
		if user.PhotoCount < 0 {
			user.PhotoCount = 0
		}
	}
	return nil
}

func (r *memUserRepo) SetPhotoCount(ctx context.Context, id uuid.UUID, count int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if user, ok := r.m.users[id]; ok {
		user.PhotoCount = count
	}
	return nil
}

func (r *memUserRepo) UpdateAccountStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if user, ok := r.m.users[id]; ok {
		user.AccountStatus = status
	}
	return nil
}

// memPhotoRepo

type memPhotoRepo struct{ m *memStore }

func (r *memPhotoRepo) Create(ctx context.Context, photo *models.Photo) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreatePhoto {
		return errors.New("create photo failed")
	}
	copied := *photo
	r.m.photos[photo.ID] = &copied
	return nil
}

func (r *memPhotoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	photo, ok := r.m.photos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *photo
	return &copied, nil
}

func (r *memPhotoRepo) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Photo, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []models.Photo
	for _, photo := range r.m.photos {
		if photo.UserID == userID {
			all = append(all, *photo)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return pagePhotos(all, offset, limit)
}

func (r *memPhotoRepo) GetByFace(ctx context.Context, userID, faceID uuid.UUID, offset, limit int) ([]models.Photo, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []models.Photo
	for _, photoID := range r.m.linkedPhotoIDs(faceID) {
		if photo, ok := r.m.photos[photoID]; ok && photo.UserID == userID {
			all = append(all, *photo)
		}
	}
	return pagePhotos(all, offset, limit)
}

func (r *memPhotoRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, photo := range r.m.photos {
		if photo.UserID == userID {
			n++
		}
	}
	return n, nil
}

func pagePhotos(all []models.Photo, offset, limit int) ([]models.Photo, int64, error) {
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// memFaceRepo

type memFaceRepo struct{ m *memStore }

func (r *memFaceRepo) CreateBatch(ctx context.Context, faces []*models.Face) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreateBatch {
		return errors.New("create batch failed")
	}
	for _, face := range faces {
		copied := *face
		r.m.faces[face.ID] = &copied
	}
	return nil
}

func (r *memFaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Face, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	face, ok := r.m.faces[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *face
	return &copied, nil
}

func (r *memFaceRepo) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Face, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []models.Face
	for _, face := range r.m.faces {
		if face.UserID == userID && face.FaceCount > 0 {
			all = append(all, *face)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FaceCount != all[j].FaceCount {
			return all[i].FaceCount > all[j].FaceCount
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memFaceRepo) GetByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.Face, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Face
	for _, faceID := range r.m.linkedFaceIDs(photoID) {
		if face, ok := r.m.faces[faceID]; ok {
			out = append(out, *face)
		}
	}
	return out, nil
}

func (r *memFaceRepo) IsLinked(ctx context.Context, photoID, faceID uuid.UUID) (bool, error) {
	return r.m.linked(photoID, faceID), nil
}

func (r *memFaceRepo) UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	face, ok := r.m.faces[id]
	if !ok || face.UserID != userID {
		return 0, nil
	}
	face.Name = name
	return 1, nil
}

func (r *memFaceRepo) ListZeroCount(ctx context.Context, limit int) ([]models.Face, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Face
	for _, face := range r.m.faces {
		if face.FaceCount <= 0 {
			out = append(out, *face)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memFaceRepo) ListFaceURLs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var urls []string
	for _, face := range r.m.faces {
		if face.UserID == userID && face.FaceURL != "" {
			urls = append(urls, face.FaceURL)
		}
	}
	return urls, nil
}

// memGalleryRepo

type memGalleryRepo struct{ m *memStore }

func (r *memGalleryRepo) LinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	pair := [2]uuid.UUID{photoID, faceID}
	if r.m.links[pair] {
		return false, nil
	}
	r.m.links[pair] = true
	if face, ok := r.m.faces[faceID]; ok {
		face.FaceCount++
	}
	return true, nil
}

func (r *memGalleryRepo) UnlinkPhotoFace(ctx context.Context, photoID, faceID uuid.UUID) (repositories.UnlinkResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	pair := [2]uuid.UUID{photoID, faceID}
	if !r.m.links[pair] {
		return repositories.UnlinkResult{Unlinked: false}, nil
	}
	face, ok := r.m.faces[faceID]
	if !ok {
		return repositories.UnlinkResult{}, gorm.ErrRecordNotFound
	}
	delete(r.m.links, pair)
	if face.FaceCount > 1 {
		face.FaceCount--
		return repositories.UnlinkResult{Unlinked: true}, nil
	}
	plan := &repositories.CascadePlan{OwnerID: face.UserID}
	r.m.collectFace(face, plan)
	return repositories.UnlinkResult{Unlinked: true, Collected: plan}, nil
}

func (r *memGalleryRepo) CommitLinks(ctx context.Context, photoID uuid.UUID, matched, created []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCommitLinks {
		return errors.New("commit links failed")
	}
	for _, faceID := range matched {
		pair := [2]uuid.UUID{photoID, faceID}
		if r.m.links[pair] {
			continue
		}
		r.m.links[pair] = true
		if face, ok := r.m.faces[faceID]; ok {
			face.FaceCount++
		}
	}
	for _, faceID := range created {
		r.m.links[[2]uuid.UUID{photoID, faceID}] = true
	}
	return nil
}

func (r *memGalleryRepo) DeletePhotoCascade(ctx context.Context, photoID, userID uuid.UUID) (*repositories.CascadePlan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	photo, ok := r.m.photos[photoID]
	if !ok || photo.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	plan := &repositories.CascadePlan{OwnerID: userID, PhotosRemoved: 1}
	plan.ObjectURLs = append(plan.ObjectURLs, photo.PhotoURL)
	for _, faceID := range r.m.linkedFaceIDs(photoID) {
		delete(r.m.links, [2]uuid.UUID{photoID, faceID})
		face := r.m.faces[faceID]
		if face == nil {
			continue
		}
		if face.FaceCount > 1 {
			face.FaceCount--
			continue
		}
		r.m.collectFace(face, plan)
	}
	delete(r.m.photos, photoID)
	return plan, nil
}

func (r *memGalleryRepo) DeleteFaceCascade(ctx context.Context, faceID, userID uuid.UUID) (*repositories.CascadePlan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	face, ok := r.m.faces[faceID]
	if !ok || face.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	plan := &repositories.CascadePlan{OwnerID: userID}
	for _, photoID := range r.m.linkedPhotoIDs(faceID) {
		shared := false
		for _, other := range r.m.linkedFaceIDs(photoID) {
			if other != faceID {
				shared = true
				break
			}
		}
		if shared {
			continue
		}
		if photo, exists := r.m.photos[photoID]; exists {
			plan.ObjectURLs = append(plan.ObjectURLs, photo.PhotoURL)
			delete(r.m.photos, photoID)
			plan.PhotosRemoved++
		}
		delete(r.m.links, [2]uuid.UUID{photoID, faceID})
	}
	r.m.collectFace(face, plan)
	return plan, nil
}

func (r *memGalleryRepo) DeleteUserCascade(ctx context.Context, userID uuid.UUID) (*repositories.CascadePlan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[userID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	plan := &repositories.CascadePlan{OwnerID: userID}
	for id, photo := range r.m.photos {
		if photo.UserID != userID {
			continue
		}
		plan.ObjectURLs = append(plan.ObjectURLs, photo.PhotoURL)
		for pair := range r.m.links {
			if pair[0] == id {
				delete(r.m.links, pair)
			}
		}
		delete(r.m.photos, id)
		plan.PhotosRemoved++
	}
	for id, face := range r.m.faces {
		if face.UserID != userID {
			continue
		}
		if face.FaceURL != "" {
			plan.ObjectURLs = append(plan.ObjectURLs, face.FaceURL)
		}
		delete(r.m.faces, id)
	}
	delete(r.m.users, userID)
	return plan, nil
}

// fakeStorage is an in-memory object store with the deterministic
// key<->URL mapping of the CDN-backed implementation.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	deleted    []string
	uploadErr  error
	deleteErr  error
	failUpload map[string]bool
}

const fakeCDNBase = "https://cdn.test"

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:    make(map[string][]byte),
		failUpload: make(map[string]bool),
	}
}

func (s *fakeStorage) put(key string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return fakeCDNBase + "/" + key
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if s.failUpload[key] {
		return "", fmt.Errorf("upload of %s refused", key)
	}
	s.objects[key] = data
	return fakeCDNBase + "/" + key, nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *fakeStorage) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for _, key := range keys {
		delete(s.objects, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *fakeStorage) List(ctx context.Context, dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimRight(dir, "/") + "/"
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fakeStorage) URLForKey(key string) string {
	return fakeCDNBase + "/" + key
}

func (s *fakeStorage) KeyForURL(url string) (string, error) {
	base := fakeCDNBase + "/"
	if !strings.HasPrefix(url, base) {
		return "", fmt.Errorf("url %q is not under the configured CDN", url)
	}
	return strings.TrimPrefix(url, base), nil
}

// fakeIndex is an in-memory vector index with cosine-similarity queries.
type fakeIndex struct {
	mu         sync.Mutex
	namespaces map[uuid.UUID]map[uuid.UUID][]float32

	queryErr  error
	upsertErr error
	deleteErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{namespaces: make(map[uuid.UUID]map[uuid.UUID][]float32)}
}

func (f *fakeIndex) put(namespace, faceID uuid.UUID, vector []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.namespaces[namespace] == nil {
		f.namespaces[namespace] = make(map[uuid.UUID][]float32)
	}
	f.namespaces[namespace][faceID] = vector
}

func (f *fakeIndex) has(namespace, faceID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.namespaces[namespace][faceID]
	return ok
}

func (f *fakeIndex) size(namespace uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.namespaces[namespace])
}

func (f *fakeIndex) Query(ctx context.Context, namespace uuid.UUID, vector []float32, topK int) ([]vectorindex.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var matches []vectorindex.Match
	for faceID, stored := range f.namespaces[namespace] {
		matches = append(matches, vectorindex.Match{FaceID: faceID, Score: cosine(vector, stored)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, namespace, faceID uuid.UUID, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.namespaces[namespace] == nil {
		f.namespaces[namespace] = make(map[uuid.UUID][]float32)
	}
	f.namespaces[namespace][faceID] = vector
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, namespace uuid.UUID, faceIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range faceIDs {
		delete(f.namespaces[namespace], id)
	}
	return nil
}

func (f *fakeIndex) DeleteNamespace(ctx context.Context, namespace uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.namespaces, namespace)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// fakeDetector returns a preset list of detections.
type fakeDetector struct {
	faces []faceapi.DetectedFace
	err   error
}

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte, mimeType string) ([]faceapi.DetectedFace, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.faces, nil
}
