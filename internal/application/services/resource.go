package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tempfiles-api/config"
	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
	"tempfiles-api/internal/domain/user"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
	"tempfiles-api/internal/infrastructure/storage"
)

const maxBaseNameLen = 100

var windowsReserved = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

type ResourceService struct {
	logger    *zap.Logger
	allocator ports.Allocator
	storage   ports.Storage
	resources resource.Repository
	clock     ports.Clock
	files     config.Files
	allowAnon bool
	mq        ports.EventPublisher
	mCounter  *prometheus.CounterVec
}

func NewResourceService(
	logger *zap.Logger,
	allocator ports.Allocator,
	store ports.Storage,
	resources resource.Repository,
	clock ports.Clock,
	files config.Files,
	allowAnon bool,
	publisher ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.ResourceService {
	return &ResourceService{
		logger:    logger,
		allocator: allocator,
		storage:   store,
		resources: resources,
		clock:     clock,
		files:     files,
		allowAnon: allowAnon,
		mq:        publisher,
		mCounter:  mCounter,
	}
}

// Create stores the upload under a fresh identifier and records its expiry.
func (rs *ResourceService) Create(ctx context.Context, owner *user.User, in ports.Upload) (*resource.Resource, error) {
	anonymous := owner.IsAnonymous()
	if anonymous && !rs.allowAnon {
		return nil, ErrAnonymousUpload
	}
	if limit := rs.files.MaxUploadBytes(anonymous); in.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, in.Size, limit)
	}

	name := sanitizeFileName(in.FileName)
	id := rs.allocator.Allocate(ctx)

	if err := rs.storage.Put(ctx, id, name, in.Body, in.Size); err != nil {
		rs.discard(ctx, id)
		return nil, fmt.Errorf("store %s: %w", id, err)
	}

	now := rs.clock.Now()
	req := resource.Resource{
		ID:        id,
		FileName:  name,
		CreatedAt: now,
		ExpiresAt: now.Add(rs.files.Retention()),
	}
	if !anonymous {
		uid := owner.ID
		req.UserID = &uid
	}

	res, err := rs.resources.CreateResource(ctx, req)
	if err != nil {
		rs.discard(ctx, id)
		if errors.Is(err, resource.ErrAlreadyExists) {
			return nil, ErrResourceExists
		}
		return nil, err
	}

	subject := "anonymous"
	if !anonymous {
		subject = owner.UUID.String()
	}
	rs.mq.Emit(mq.NewEvent(mq.ActionResourceCreated, res.ID.String(), map[string]any{
		"file_name":  res.FileName,
		"uploader":   subject,
		"expires_at": res.ExpiresAt,
	}))
	rs.mCounter.WithLabelValues(metrics.ResourcesCreated).Inc()

	return res, nil
}

func (rs *ResourceService) discard(ctx context.Context, id resource.ID) {
	if err := rs.storage.RemoveAll(ctx, id); err != nil {
		rs.logger.Warn("discard partial upload", zap.Stringer("id", id), zap.Error(err))
	}
}

// live returns the resource unless it is missing or already expired.
func (rs *ResourceService) live(ctx context.Context, id resource.ID) (*resource.Resource, error) {
	res, err := rs.resources.FetchResource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch resource %s: %w", id, err)
	}
	if res == nil || res.Expired(rs.clock.Now()) {
		return nil, ErrResourceNotFound
	}
	return res, nil
}

func (rs *ResourceService) FileName(ctx context.Context, id resource.ID) (string, error) {
	res, err := rs.live(ctx, id)
	if err != nil {
		return "", err
	}
	return res.FileName, nil
}

func (rs *ResourceService) Open(ctx context.Context, id resource.ID, name string) (io.ReadCloser, *ports.FileInfo, error) {
	res, err := rs.live(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if name != res.FileName {
		return nil, nil, ErrResourceNotFound
	}

	rc, size, err := rs.storage.Open(ctx, id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			rs.logger.Error("resource has metadata but no contents", zap.Stringer("id", id))
			return nil, nil, ErrResourceNotFound
		}
		return nil, nil, err
	}

	return rc, &ports.FileInfo{Resource: res, Name: name, Size: size}, nil
}

func (rs *ResourceService) Info(ctx context.Context, id resource.ID, name string) (*ports.FileInfo, error) {
	rc, info, err := rs.Open(ctx, id, name)
	if err != nil {
		return nil, err
	}
	_ = rc.Close()
	return info, nil
}

// sanitizeFileName reduces a client supplied name to a safe ASCII base name.
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" || s == "/" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	rawExt := path.Ext(s)
	ext := strings.ToLower(rawExt)
	base := strings.TrimSuffix(s, rawExt)
	if !isSafeExt(ext) {
		ext, base = "", s
	}

	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if _, bad := windowsReserved[base]; bad {
		base = "_" + base
	}

	for utf8.RuneCountInString(base)+len(ext) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		if size <= 0 || size > len(base) {
			break
		}
		base = base[:len(base)-size]
	}

	return base + ext
}

func isSafeExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 16 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
