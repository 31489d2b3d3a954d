package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/world"
)

// BadgerPlanetStore хранит список планет в BadgerDB.
// Значение: msgpack-список, сжатый zstd. Ключ: planets:<userID>.
type BadgerPlanetStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// NewBadgerPlanetStore открывает базу в каталоге dataPath/planets
func NewBadgerPlanetStore(dataPath string, logger *logging.Logger) (*BadgerPlanetStore, error) {
	dbPath := filepath.Join(dataPath, "planets")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	logger.Info("Хранилище планет открыто: %s", dbPath)
	return &BadgerPlanetStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: enc,
		decoder: dec,
		logger:  logger,
	}, nil
}

func planetsKey(userID string) []byte {
	return []byte("planets:" + userID)
}

// Save сериализует и сохраняет список планет пользователя
func (s *BadgerPlanetStore) Save(ctx context.Context, userID string, planets []world.Planet) error {
	if userID == "" {
		return fmt.Errorf("пустой userID")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	raw, err := msgpack.Marshal(planets)
	if err != nil {
		return fmt.Errorf("ошибка сериализации планет: %w", err)
	}
	data := s.encoder.EncodeAll(raw, nil)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(planetsKey(userID), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	s.logger.Debug("Сохранено %d планет для %s (%d байт)", len(planets), userID, len(data))
	return nil
}

// Load читает список планет пользователя
func (s *BadgerPlanetStore) Load(ctx context.Context, userID string) ([]world.Planet, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(planetsKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка распаковки планет: %w", err)
	}
	var planets []world.Planet
	if err := msgpack.Unmarshal(raw, &planets); err != nil {
		return nil, false, fmt.Errorf("ошибка десериализации планет: %w", err)
	}
	return planets, true, nil
}

// Close закрывает базу
func (s *BadgerPlanetStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}
