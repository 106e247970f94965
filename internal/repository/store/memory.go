package store

import "sync"

// memoryMedium keeps the image in memory. It backs the simulator and tests.
type memoryMedium struct {
	mu sync.Mutex
	// data is the saved image, nil until the first save.
	data []byte
	// saveErr is returned from save when set.
	saveErr error
}

// NewMemoryRepository creates a repository that starts erased and lives in memory.
func NewMemoryRepository() *ImageRepository {
	return newImageRepository(new(memoryMedium))
}

// NewMemoryRepositoryFromImage creates an in-memory repository preloaded with raw image bytes.
func NewMemoryRepositoryFromImage(raw []byte) *ImageRepository {
	data := make([]byte, len(raw))
	copy(data, raw)

	return newImageRepository(&memoryMedium{data: data})
}

func (m *memoryMedium) load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, ErrNotFound
	}

	out := make([]byte, len(m.data))
	copy(out, m.data)

	return out, nil
}

func (m *memoryMedium) save(image []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.data = make([]byte, len(image))
	copy(m.data, image)

	return nil
}
