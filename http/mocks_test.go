package http_test

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/linhsuan/shortstack"
)

type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// MockResolver is a mock implementation of http.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, segments []string, meta shortstack.RequestMeta) (shortstack.ShortLink, error) {
	args := m.Called(ctx, segments, meta)
	return args.Get(0).(shortstack.ShortLink), args.Error(1)
}

// MockAssetServer is a mock implementation of http.AssetServer
type MockAssetServer struct {
	mock.Mock
}

func (m *MockAssetServer) ResolveAsset(ctx context.Context, slug, path string, meta shortstack.RequestMeta) (shortstack.ResolvedAsset, error) {
	args := m.Called(ctx, slug, path, meta)
	return args.Get(0).(shortstack.ResolvedAsset), args.Error(1)
}

func (m *MockAssetServer) Fetch(ctx context.Context, key string) (io.ReadCloser, shortstack.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(shortstack.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(shortstack.ObjectInfo), args.Error(2)
}

// MockSessionStore is a mock implementation of http.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetSessionByToken(ctx context.Context, token string) (shortstack.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(shortstack.Session), args.Error(1)
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockLinkRepo is a mock implementation of shortstack.LinkRepo
type MockLinkRepo struct {
	mock.Mock
}

func (m *MockLinkRepo) GetLink(ctx context.Context, id string) (shortstack.ShortLink, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shortstack.ShortLink), args.Error(1)
}

func (m *MockLinkRepo) GetLinkBySlug(ctx context.Context, slug string) (shortstack.ShortLink, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(shortstack.ShortLink), args.Error(1)
}

func (m *MockLinkRepo) ListLinks(ctx context.Context, p shortstack.ListParams) ([]shortstack.ShortLink, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]shortstack.ShortLink), args.Int(1), args.Error(2)
}

func (m *MockLinkRepo) CreateLink(ctx context.Context, link shortstack.ShortLink) (shortstack.ShortLink, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(shortstack.ShortLink), args.Error(1)
}

func (m *MockLinkRepo) UpdateLink(ctx context.Context, link shortstack.ShortLink) (shortstack.ShortLink, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(shortstack.ShortLink), args.Error(1)
}

func (m *MockLinkRepo) DeleteLink(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSiteRepo is a mock implementation of shortstack.SiteRepo
type MockSiteRepo struct {
	mock.Mock
}

func (m *MockSiteRepo) GetSite(ctx context.Context, id string) (shortstack.Site, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shortstack.Site), args.Error(1)
}

func (m *MockSiteRepo) GetSiteBySlug(ctx context.Context, slug string) (shortstack.Site, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(shortstack.Site), args.Error(1)
}

func (m *MockSiteRepo) ListSites(ctx context.Context, p shortstack.ListParams) ([]shortstack.Site, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]shortstack.Site), args.Int(1), args.Error(2)
}

func (m *MockSiteRepo) CreateSite(ctx context.Context, site shortstack.Site) (shortstack.Site, error) {
	args := m.Called(ctx, site)
	return args.Get(0).(shortstack.Site), args.Error(1)
}

func (m *MockSiteRepo) UpdateSite(ctx context.Context, site shortstack.Site) (shortstack.Site, error) {
	args := m.Called(ctx, site)
	return args.Get(0).(shortstack.Site), args.Error(1)
}

func (m *MockSiteRepo) DeleteSite(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAnalyticsRepo is a mock implementation of shortstack.AnalyticsRepo
type MockAnalyticsRepo struct {
	mock.Mock
}

func (m *MockAnalyticsRepo) InsertClick(ctx context.Context, e shortstack.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAnalyticsRepo) InsertVisit(ctx context.Context, e shortstack.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAnalyticsRepo) CountClicks(ctx context.Context, linkID string) (int, error) {
	args := m.Called(ctx, linkID)
	return args.Int(0), args.Error(1)
}

func (m *MockAnalyticsRepo) CountVisits(ctx context.Context, siteID string) (int, error) {
	args := m.Called(ctx, siteID)
	return args.Int(0), args.Error(1)
}

// MockKVRepo is a mock implementation of shortstack.KVRepo
type MockKVRepo struct {
	mock.Mock
}

func (m *MockKVRepo) GetValue(ctx context.Context, key string) (json.RawMessage, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockKVRepo) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockSiteManager is a mock implementation of http.SiteManager
type MockSiteManager struct {
	mock.Mock
}

func (m *MockSiteManager) Create(ctx context.Context, name, slug, by string) (shortstack.Site, error) {
	args := m.Called(ctx, name, slug, by)
	return args.Get(0).(shortstack.Site), args.Error(1)
}

func (m *MockSiteManager) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSiteManager) Files(ctx context.Context, id string) (shortstack.FileListing, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shortstack.FileListing), args.Error(1)
}

func (m *MockSiteManager) Upload(ctx context.Context, id, dir string, files []shortstack.UploadFile) ([]string, error) {
	args := m.Called(ctx, id, dir, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSiteManager) DeleteFile(ctx context.Context, id, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}

func (m *MockSiteManager) DeleteDir(ctx context.Context, id, path string) (int, error) {
	args := m.Called(ctx, id, path)
	return args.Int(0), args.Error(1)
}

func (m *MockSiteManager) ImportZip(ctx context.Context, id string, archive io.ReaderAt, size int64, mode shortstack.ImportMode) (shortstack.ImportResult, error) {
	args := m.Called(ctx, id, archive, size, mode)
	return args.Get(0).(shortstack.ImportResult), args.Error(1)
}
