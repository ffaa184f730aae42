package serviceimpl

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facefolio/domain/models"
	"facefolio/domain/services"
	"facefolio/infrastructure/storage"
)

type cascadeFixture struct {
	store   *memStore
	storage *fakeStorage
	index   *fakeIndex
	service services.CascadeService
}

func newCascadeFixture(t *testing.T) *cascadeFixture {
	t.Helper()
	f := &cascadeFixture{
		store:   newMemStore(),
		storage: newFakeStorage(),
		index:   newFakeIndex(),
	}
	f.service = NewCascadeService(
		f.store.userRepo(),
		f.store.galleryRepo(),
		f.storage,
		f.index,
	)
	return f
}

// addStoredPhoto creates a photo row plus its backing blob.
func (f *cascadeFixture) addStoredPhoto(userID uuid.UUID, filename string) (*models.Photo, string) {
	key := storage.ObjectKey(testRootFolder, userID, storage.CategoryMedia, filename)
	url := f.storage.put(key, []byte("jpeg"))
	return f.store.addPhoto(userID, url), key
}

// addStoredFace creates a face row with its crop blob and vector.
func (f *cascadeFixture) addStoredFace(userID uuid.UUID, filename string, count int) (*models.Face, string) {
	key := storage.ObjectKey(testRootFolder, userID, storage.CategoryFaces, filename)
	url := f.storage.put(key, []byte("crop"))
	face := f.store.addFace(userID, url, count)
	f.index.put(userID, face.ID, []float32{1, 0, 0})
	return face, key
}

func TestDeletePhoto_SharedAndExclusiveFaces(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 2, 10)

	photo, photoKey := f.addStoredPhoto(user.ID, "target.jpg")
	other, _ := f.addStoredPhoto(user.ID, "other.jpg")

	shared, sharedKey := f.addStoredFace(user.ID, "shared.jpg", 2)
	exclusive, exclusiveKey := f.addStoredFace(user.ID, "exclusive.jpg", 1)
	f.store.link(photo.ID, shared.ID)
	f.store.link(other.ID, shared.ID)
	f.store.link(photo.ID, exclusive.ID)

	require.NoError(t, f.service.DeletePhoto(context.Background(), user.ID, photo.ID))

	// Photo row and blob are gone, the other photo untouched.
	assert.Nil(t, f.store.photoByID(photo.ID))
	assert.False(t, f.storage.has(photoKey))
	assert.NotNil(t, f.store.photoByID(other.ID))

	// Shared face survives with one fewer reference.
	assert.Equal(t, 1, f.store.faceByID(shared.ID).FaceCount)
	assert.True(t, f.storage.has(sharedKey))
	assert.True(t, f.index.has(user.ID, shared.ID))

	// Exclusive face is fully collected.
	assert.Nil(t, f.store.faceByID(exclusive.ID))
	assert.False(t, f.storage.has(exclusiveKey))
	assert.False(t, f.index.has(user.ID, exclusive.ID))

	assert.Equal(t, 1, f.store.userByID(user.ID).PhotoCount)
}

func TestDeletePhoto_NotFound(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 0, 10)

	err := f.service.DeletePhoto(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeletePhoto_WrongOwner(t *testing.T) {
	f := newCascadeFixture(t)
	owner := f.store.addUser(models.AccountStatusActive, 1, 10)
	other := f.store.addUser(models.AccountStatusActive, 0, 10)
	photo, key := f.addStoredPhoto(owner.ID, "mine.jpg")

	err := f.service.DeletePhoto(context.Background(), other.ID, photo.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.NotNil(t, f.store.photoByID(photo.ID))
	assert.True(t, f.storage.has(key))
}

func TestDeletePhoto_ExternalFailureStillDecrementsCounter(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 1, 10)
	photo, _ := f.addStoredPhoto(user.ID, "flaky.jpg")
	f.storage.deleteErr = errors.New("store unavailable")

	err := f.service.DeletePhoto(context.Background(), user.ID, photo.ID)

	var storeErr *services.StoreError
	require.ErrorAs(t, err, &storeErr)
	// The row is gone, so the counter must drop regardless.
	assert.Zero(t, f.store.userByID(user.ID).PhotoCount)
	assert.Nil(t, f.store.photoByID(photo.ID))
}

func TestDeleteFace_RemovesExclusivePhotosKeepsShared(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 3, 10)

	face, faceKey := f.addStoredFace(user.ID, "target.jpg", 3)
	otherFace, _ := f.addStoredFace(user.ID, "bystander.jpg", 2)

	exclusiveA, keyA := f.addStoredPhoto(user.ID, "solo-a.jpg")
	exclusiveB, keyB := f.addStoredPhoto(user.ID, "solo-b.jpg")
	sharedPhoto, sharedKey := f.addStoredPhoto(user.ID, "group.jpg")

	f.store.link(exclusiveA.ID, face.ID)
	f.store.link(exclusiveB.ID, face.ID)
	f.store.link(sharedPhoto.ID, face.ID)
	f.store.link(sharedPhoto.ID, otherFace.ID)

	require.NoError(t, f.service.DeleteFace(context.Background(), user.ID, face.ID))

	// Photos linked only to the face are removed with their blobs.
	assert.Nil(t, f.store.photoByID(exclusiveA.ID))
	assert.Nil(t, f.store.photoByID(exclusiveB.ID))
	assert.False(t, f.storage.has(keyA))
	assert.False(t, f.storage.has(keyB))

	// The shared photo stays, now linked only to the other face.
	assert.NotNil(t, f.store.photoByID(sharedPhoto.ID))
	assert.True(t, f.storage.has(sharedKey))
	assert.False(t, f.store.linked(sharedPhoto.ID, face.ID))
	assert.True(t, f.store.linked(sharedPhoto.ID, otherFace.ID))

	// Face row, crop, and vector are gone.
	assert.Nil(t, f.store.faceByID(face.ID))
	assert.False(t, f.storage.has(faceKey))
	assert.False(t, f.index.has(user.ID, face.ID))

	assert.Equal(t, 1, f.store.userByID(user.ID).PhotoCount)
}

func TestDeleteFace_NotFound(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 0, 10)

	err := f.service.DeleteFace(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteUser_DropsEverything(t *testing.T) {
	f := newCascadeFixture(t)
	user := f.store.addUser(models.AccountStatusActive, 2, 10)
	bystander := f.store.addUser(models.AccountStatusActive, 1, 10)

	photoA, keyA := f.addStoredPhoto(user.ID, "a.jpg")
	photoB, keyB := f.addStoredPhoto(user.ID, "b.jpg")
	face, faceKey := f.addStoredFace(user.ID, "face.jpg", 2)
	f.store.link(photoA.ID, face.ID)
	f.store.link(photoB.ID, face.ID)

	keptPhoto, keptKey := f.addStoredPhoto(bystander.ID, "kept.jpg")

	require.NoError(t, f.service.DeleteUser(context.Background(), user.ID))

	assert.Nil(t, f.store.userByID(user.ID))
	assert.Nil(t, f.store.photoByID(photoA.ID))
	assert.Nil(t, f.store.photoByID(photoB.ID))
	assert.Nil(t, f.store.faceByID(face.ID))
	assert.False(t, f.storage.has(keyA))
	assert.False(t, f.storage.has(keyB))
	assert.False(t, f.storage.has(faceKey))
	// The whole namespace is dropped in one call.
	assert.Zero(t, f.index.size(user.ID))

	// The other user's data is untouched.
	assert.NotNil(t, f.store.photoByID(keptPhoto.ID))
	assert.True(t, f.storage.has(keptKey))
}

func TestDeleteUser_NotFound(t *testing.T) {
	f := newCascadeFixture(t)
	err := f.service.DeleteUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCascade_Validation(t *testing.T) {
	f := newCascadeFixture(t)
	assert.ErrorIs(t, f.service.DeletePhoto(context.Background(), uuid.Nil, uuid.New()), services.ErrValidation)
	assert.ErrorIs(t, f.service.DeleteFace(context.Background(), uuid.New(), uuid.Nil), services.ErrValidation)
	assert.ErrorIs(t, f.service.DeleteUser(context.Background(), uuid.Nil), services.ErrValidation)
}
