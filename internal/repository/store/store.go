package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/door-lock/internal/domain/lock"
)

// Repository defines the persistent storage contract of the control node.
// Init must succeed before any other call.
type Repository interface {
	Init(ctx context.Context) error
	ReadCredential(ctx context.Context) (lock.Credential, error)
	WriteCredential(ctx context.Context, credential lock.Credential) error
	ReadTimeout(ctx context.Context) (lock.Timeout, error)
	WriteTimeout(ctx context.Context, timeout lock.Timeout) error
	IsConfigured(ctx context.Context) (bool, error)
	MarkConfigured(ctx context.Context) error
}

const (
	credentialAddress  = 0x00
	credentialSlotSize = 8
	timeoutAddress     = 0x10
	flagAddress        = 0x20

	// ImageSize is the size of the persisted image in bytes.
	ImageSize = 0x24

	// ErasedByte is the value of never-written storage.
	ErasedByte = 0xFF

	// configuredSentinel marks a configured image; it differs from both 0x00 and erased storage.
	configuredSentinel = 0x55
)

var (
	// ErrNotFound is returned by a medium that holds no image yet.
	ErrNotFound = errors.New("store image not found")
	// ErrNotInitialized is returned when a call is made before Init.
	ErrNotInitialized = errors.New("store is not initialized")
	// ErrCorruptImage is returned when the persisted image has the wrong size.
	ErrCorruptImage = errors.New("store image has unexpected size")
)

// medium is where an image is loaded from and saved to.
type medium interface {
	load() ([]byte, error)
	save(image []byte) error
}

// ImageRepository implements Repository on top of a fixed-layout image.
type ImageRepository struct {
	// medium persists the image.
	medium medium
	// image is the last successfully persisted image, nil before Init.
	image []byte
	// mu serialises access to image and medium.
	mu sync.Mutex
}

func newImageRepository(m medium) *ImageRepository {
	return &ImageRepository{medium: m}
}

// Init loads the image, creating an erased one when none exists. It is idempotent.
func (r *ImageRepository) Init(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image != nil {
		return nil
	}

	image, err := r.medium.load()

	switch {
	case err == nil:
		if len(image) != ImageSize {
			return fmt.Errorf("%w: %d bytes", ErrCorruptImage, len(image))
		}
	case errors.Is(err, ErrNotFound):
		image = erasedImage()

		if err = r.medium.save(image); err != nil {
			return fmt.Errorf("create store image: %w", err)
		}
	default:
		return fmt.Errorf("load store image: %w", err)
	}

	r.image = image

	return nil
}

// ReadCredential returns the stored credential.
// An unconfigured store returns erased bytes, which never match a valid credential.
func (r *ImageRepository) ReadCredential(_ context.Context) (lock.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image == nil {
		return "", ErrNotInitialized
	}

	slot := r.image[credentialAddress : credentialAddress+lock.CredentialLength]

	return lock.Credential(slot), nil
}

// WriteCredential overwrites the credential slot.
func (r *ImageRepository) WriteCredential(_ context.Context, credential lock.Credential) error {
	if !credential.Valid() {
		return lock.ErrInvalidCredential
	}

	return r.update(func(image []byte) {
		slot := image[credentialAddress : credentialAddress+credentialSlotSize]
		clear(slot)
		copy(slot, credential)
	})
}

// ReadTimeout returns the stored timeout or lock.DefaultTimeout when the raw value is out of range.
func (r *ImageRepository) ReadTimeout(_ context.Context) (lock.Timeout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image == nil {
		return 0, ErrNotInitialized
	}

	raw := binary.LittleEndian.Uint32(r.image[timeoutAddress:])
	if raw > uint32(lock.MaxTimeout) {
		return lock.DefaultTimeout, nil
	}

	return lock.Timeout(raw).OrDefault(), nil
}

// WriteTimeout stores the timeout.
func (r *ImageRepository) WriteTimeout(_ context.Context, timeout lock.Timeout) error {
	if !timeout.Valid() {
		return lock.ErrTimeoutOutOfRange
	}

	return r.update(func(image []byte) {
		binary.LittleEndian.PutUint32(image[timeoutAddress:], uint32(timeout))
	})
}

// IsConfigured reports whether MarkConfigured has ever been persisted.
func (r *ImageRepository) IsConfigured(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image == nil {
		return false, ErrNotInitialized
	}

	return binary.LittleEndian.Uint32(r.image[flagAddress:]) == configuredSentinel, nil
}

// MarkConfigured persists the configured flag.
func (r *ImageRepository) MarkConfigured(_ context.Context) error {
	return r.update(func(image []byte) {
		binary.LittleEndian.PutUint32(image[flagAddress:], configuredSentinel)
	})
}

// update applies fn to a copy of the image and swaps it in only after the medium accepted it.
func (r *ImageRepository) update(fn func(image []byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image == nil {
		return ErrNotInitialized
	}

	next := make([]byte, len(r.image))
	copy(next, r.image)
	fn(next)

	if err := r.medium.save(next); err != nil {
		return fmt.Errorf("save store image: %w", err)
	}

	r.image = next

	return nil
}

func erasedImage() []byte {
	image := make([]byte, ImageSize)
	for i := range image {
		image[i] = ErasedByte
	}

	return image
}
