// Package images keeps stage photos out of the entity collections.
// Each photo is downsized and stored under its own key; entities hold
// the key as a reference.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

var ErrInvalidImage = errors.New("images: invalid image data")

type record struct {
	Data    string    `json:"data"`
	SavedAt time.Time `json:"savedAt"`
}

// Store is the image side store.
type Store struct {
	adapter *store.Adapter
	maxDim  int
	quality int
	log     *logrus.Logger
	now     func() time.Time
}

func New(a *store.Adapter, maxDim, quality int, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if maxDim <= 0 {
		maxDim = 1280
	}
	if quality <= 0 || quality > 100 {
		quality = 75
	}
	return &Store{adapter: a, maxDim: maxDim, quality: quality, log: log, now: time.Now}
}

// Key names the image of one kind for one enquiry stage.
func Key(enquiryID int, stage models.Stage, kind string) string {
	return fmt.Sprintf("%s%d_%s_%s", store.ImageKeyPrefix, enquiryID, stage, kind)
}

// IsRef reports whether s is a side-store reference rather than image data.
func IsRef(s string) bool {
	return strings.HasPrefix(s, store.ImageKeyPrefix)
}

// Save downsizes the data URL, stores it and returns its reference key.
func (s *Store) Save(ctx context.Context, enquiryID int, stage models.Stage, kind, dataURL string) (string, error) {
	encoded, err := s.compress(dataURL)
	if err != nil {
		return "", err
	}
	key := Key(enquiryID, stage, kind)
	payload, err := json.Marshal(record{Data: encoded, SavedAt: s.now()})
	if err != nil {
		return "", err
	}

	b := s.adapter.Backend()
	for {
		err = b.Set(ctx, key, payload)
		if !errors.Is(err, store.ErrQuotaExceeded) {
			break
		}
		removed, eerr := s.EvictOldest(ctx, 1)
		if eerr != nil || removed == 0 {
			break
		}
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"module": "images", "key": key}).WithError(err).Error("saving image failed")
		return "", fmt.Errorf("images: save %s: %w", key, err)
	}
	return key, nil
}

// Externalize moves an embedded image into the side store and returns the
// reference. Anything else (a reference, empty, placeholder) is returned as is.
func (s *Store) Externalize(ctx context.Context, enquiryID int, stage models.Stage, kind, photo string) (string, error) {
	if !store.IsEmbeddedImage(photo) {
		return photo, nil
	}
	return s.Save(ctx, enquiryID, stage, kind, photo)
}

func (s *Store) compress(dataURL string) (string, error) {
	comma := strings.IndexByte(dataURL, ',')
	if !store.IsEmbeddedImage(dataURL) || comma < 0 || !strings.HasSuffix(dataURL[:comma], ";base64") {
		return "", ErrInvalidImage
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() > s.maxDim || b.Dy() > s.maxDim {
		img = imaging.Fit(img, s.maxDim, s.maxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Load returns the data URL stored under ref.
func (s *Store) Load(ctx context.Context, ref string) (string, bool, error) {
	rec, err := store.Get(ctx, s.adapter, ref, record{})
	if err != nil {
		return "", false, err
	}
	if rec.Data == "" {
		return "", false, nil
	}
	return rec.Data, true, nil
}

// Resolve turns a reference into image data. Other values pass through.
func (s *Store) Resolve(ctx context.Context, photo string) (string, error) {
	if !IsRef(photo) {
		return photo, nil
	}
	data, ok, err := s.Load(ctx, photo)
	if err != nil {
		return "", err
	}
	if !ok {
		return store.ImagePlaceholder, nil
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	return s.adapter.Remove(ctx, ref)
}

// DeleteForEnquiry removes every image of one enquiry.
func (s *Store) DeleteForEnquiry(ctx context.Context, enquiryID int) (int, error) {
	keys, err := s.adapter.Keys(ctx, fmt.Sprintf("%s%d_", store.ImageKeyPrefix, enquiryID))
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := s.adapter.Remove(ctx, k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// EvictOldest drops up to n images, oldest first.
func (s *Store) EvictOldest(ctx context.Context, n int) (int, error) {
	keys, err := s.adapter.Keys(ctx, store.ImageKeyPrefix)
	if err != nil {
		return 0, err
	}
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(keys))
	for _, k := range keys {
		rec, err := store.Get(ctx, s.adapter, k, record{})
		if err != nil {
			return 0, err
		}
		all = append(all, aged{key: k, at: rec.SavedAt})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	removed := 0
	for _, a := range all {
		if removed >= n {
			break
		}
		if err := s.adapter.Remove(ctx, a.key); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.WithFields(logrus.Fields{"module": "images", "evicted": removed}).Info("evicted oldest images")
	}
	return removed, nil
}
