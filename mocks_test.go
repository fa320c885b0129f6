package shortstack_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/linhsuan/shortstack"
)

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
	var links []shortstack.ShortLink
	if v := args.Get(0); v != nil {
		links = v.([]shortstack.ShortLink)
	}
	return links, args.Int(1), args.Error(2)
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
	var sites []shortstack.Site
	if v := args.Get(0); v != nil {
		sites = v.([]shortstack.Site)
	}
	return sites, args.Int(1), args.Error(2)
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

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, shortstack.ObjectInfo, error) {
	args := m.Called(ctx, key)
	var body io.ReadCloser
	if v := args.Get(0); v != nil {
		body = v.(io.ReadCloser)
	}
	return body, args.Get(1).(shortstack.ObjectInfo), args.Error(2)
}

func (m *MockObjectStore) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	args := m.Called(ctx, key, contentType, content)
	return args.Error(0)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) DeleteBatch(ctx context.Context, keys []string) (int, error) {
	args := m.Called(ctx, keys)
	return args.Int(0), args.Error(1)
}

func (m *MockObjectStore) List(ctx context.Context, prefix string) ([]shortstack.ObjectRecord, error) {
	args := m.Called(ctx, prefix)
	var records []shortstack.ObjectRecord
	if v := args.Get(0); v != nil {
		records = v.([]shortstack.ObjectRecord)
	}
	return records, args.Error(1)
}

func (m *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) DeleteFolder(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}
