package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agripass/internal/audit"
	"agripass/internal/contentstore"
	"agripass/internal/ledger"
	"agripass/internal/passport"
	"agripass/internal/passport/metadata"
	"agripass/internal/passport/service"
	"agripass/internal/passport/store"
	"agripass/internal/platform/config"
	dErrors "agripass/pkg/domain-errors"
)

// fakeContentStore records uploads and returns a canned identifier.
type fakeContentStore struct {
	contentID string
	calls     int
	lastName  string
	lastBody  []byte
}

func (f *fakeContentStore) Upload(_ context.Context, content []byte, name string) string {
	f.calls++
	f.lastName = name
	f.lastBody = content
	return f.contentID
}

// fakeLedger records anchor requests and returns a canned result.
type fakeLedger struct {
	result      passport.AnchorResult
	calls       int
	lastContent string
	lastOwner   string
}

func (f *fakeLedger) Anchor(_ context.Context, contentID, ownerRef string) passport.AnchorResult {
	f.calls++
	f.lastContent = contentID
	f.lastOwner = ownerRef
	return f.result
}

// failingStore rejects every operation, simulating an unreachable database.
type failingStore struct{}

func (failingStore) Create(context.Context, *passport.Passport) error {
	return dErrors.New(dErrors.CodeUnavailable, "connection refused")
}

func (failingStore) GetByToken(context.Context, string) (*passport.Passport, error) {
	return nil, dErrors.New(dErrors.CodeUnavailable, "connection refused")
}

func (failingStore) ListByOwner(context.Context, string) ([]*passport.Passport, error) {
	return nil, dErrors.New(dErrors.CodeUnavailable, "connection refused")
}

// capturingAudit retains emitted events for inspection.
type capturingAudit struct {
	events []audit.Event
}

func (c *capturingAudit) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func validCrop() passport.CropFacts {
	return passport.CropFacts{
		CropType:    "Basmati Rice",
		Variety:     "Pusa 1121",
		Season:      "Kharif 2024",
		SowingDate:  "2024-06-10",
		HarvestDate: "2024-11-02",
		Area:        2.5,
		Practices:   []string{"Organic"},
	}
}

func validFarmer() passport.FarmerFacts {
	return passport.FarmerFacts{Name: "R. Devi", Location: "Karnal, Haryana", Experience: "12 years"}
}

func fixedClock() time.Time {
	return time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)
}

func newService(content service.ContentStore, ldg service.Ledger, st service.Store, opts ...service.Option) *service.Service {
	builder := metadata.NewBuilder("https://agripass.example.com",
		metadata.WithClock(fixedClock),
		metadata.WithSuffixSource(func() string { return "AB12CD34" }),
	)
	return service.New(content, ldg, st, builder, "https://agripass.example.com", opts...)
}

func TestIssueAnchored(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	ldg := &fakeLedger{result: passport.AnchorResult{
		Token:         "77",
		TransactionID: "0xdeadbeef",
		Confirmed:     true,
	}}
	events := &capturingAudit{}
	svc := newService(content, ldg, store.NewMemory(), service.WithAudit(events))

	result, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	assert.Equal(t, "77", result.Passport.Token)
	assert.Equal(t, "cid-abc123", result.Passport.ContentID)
	assert.Equal(t, "0xdeadbeef", result.Passport.TransactionID)
	assert.True(t, result.Passport.Confirmed)
	assert.False(t, result.Passport.Mock)
	assert.Equal(t, "farmer-1", result.Passport.OwnerID)
	assert.Equal(t, "https://agripass.example.com/verify/77", result.VerificationURL)

	// The anchored identifier is the one the content store returned.
	assert.Equal(t, "cid-abc123", ldg.lastContent)
	assert.Equal(t, "farmer-1", ldg.lastOwner)

	// Metadata carries the caller's facts through to the certificate.
	assert.Equal(t, "Basmati Rice", result.Metadata.Crop.Name)
	assert.Equal(t, "AGP-20240715-AB12CD34", result.Metadata.Certificate.ID)
	assert.Equal(t, result.Metadata.Certificate.ID, content.lastName)

	require.Len(t, events.events, 1)
	assert.Equal(t, audit.ActionPassportIssued, events.events[0].Action)
	assert.Equal(t, "77", events.events[0].Token)
}

func TestIssueFullyDegraded(t *testing.T) {
	// Real clients with no credentials and no RPC endpoint: the pipeline
	// still issues, with deterministic local identifiers.
	content := contentstore.New(config.ContentStoreConfig{})
	ldg := ledger.New(config.LedgerConfig{ChainID: 10143})
	mem := store.NewMemory()
	svc := newService(content, ldg, mem)

	result, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	assert.Regexp(t, `^MOCK-[0-9a-f]{12}$`, result.Passport.Token)
	assert.True(t, result.Passport.Mock)
	assert.False(t, result.Passport.Confirmed)
	assert.True(t, strings.HasPrefix(result.Passport.ContentID, "Qm"))

	// The round trip holds with no external services at all.
	verification, err := svc.Verify(context.Background(), result.Passport.Token)
	require.NoError(t, err)
	assert.True(t, verification.Found)
	assert.True(t, verification.Mock)
	require.NotNil(t, verification.Passport)
	assert.Equal(t, result.Passport.ID, verification.Passport.ID)
}

func TestIssueRetryConvergesOnSameIdentifiers(t *testing.T) {
	content := contentstore.New(config.ContentStoreConfig{})
	ldg := ledger.New(config.LedgerConfig{ChainID: 10143}, ledger.WithClock(fixedClock))
	mem := store.NewMemory()
	svc := newService(content, ldg, mem)

	first, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	// Identical input within the same time bucket reproduces the same
	// content identifier and mock token, so the retry collides with the
	// stored record instead of minting a second identity.
	_, err = svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	records, err := mem.ListByOwner(context.Background(), "farmer-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.Passport.Token, records[0].Token)
}

func TestIssueRejectsMalformedInputBeforeExternalCalls(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	ldg := &fakeLedger{result: passport.AnchorResult{Token: "77", Confirmed: true}}
	svc := newService(content, ldg, store.NewMemory())

	crop := validCrop()
	crop.CropType = ""
	_, err := svc.Issue(context.Background(), "farmer-1", crop, validFarmer())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.Issue(context.Background(), "", validCrop(), validFarmer())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	farmer := validFarmer()
	farmer.Name = ""
	_, err = svc.Issue(context.Background(), "farmer-1", validCrop(), farmer)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	assert.Zero(t, content.calls)
	assert.Zero(t, ldg.calls)
}

func TestIssuePersistenceFailure(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	ldg := &fakeLedger{result: passport.AnchorResult{Token: "77", Confirmed: true}}
	svc := newService(content, ldg, failingStore{})

	_, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestVerifyUnknownToken(t *testing.T) {
	svc := newService(&fakeContentStore{contentID: "cid"}, &fakeLedger{}, store.NewMemory())

	result, err := svc.Verify(context.Background(), "nonexistent-token-123")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Passport)
}

func TestVerifyFoundRecord(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	ldg := &fakeLedger{result: passport.AnchorResult{Token: "77", TransactionID: "0xdeadbeef", Confirmed: true}}
	events := &capturingAudit{}
	svc := newService(content, ldg, store.NewMemory(), service.WithAudit(events))

	issued, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	result, err := svc.Verify(context.Background(), issued.Passport.Token)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Mock)
	require.NotNil(t, result.Passport)
	assert.Equal(t, issued.Passport.ID, result.Passport.ID)

	require.Len(t, events.events, 2)
	assert.Equal(t, audit.ActionPassportVerified, events.events[1].Action)
}

func TestVerifyMockTokenWithoutRepository(t *testing.T) {
	// A structurally valid mock token is recognized even when the store
	// cannot be reached; the record just isn't attached.
	svc := newService(&fakeContentStore{contentID: "cid"}, &fakeLedger{}, failingStore{})

	result, err := svc.Verify(context.Background(), "MOCK-0123456789ab")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Mock)
	assert.Nil(t, result.Passport)
}

func TestVerifyStoreUnavailable(t *testing.T) {
	svc := newService(&fakeContentStore{contentID: "cid"}, &fakeLedger{}, failingStore{})

	_, err := svc.Verify(context.Background(), "77")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestListByOwner(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	mem := store.NewMemory()
	svc := newService(content, &fakeLedger{result: passport.AnchorResult{Token: "77", Confirmed: true}}, mem)

	_, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	records, err := svc.ListByOwner(context.Background(), "farmer-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = svc.ListByOwner(context.Background(), "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCertificate(t *testing.T) {
	content := &fakeContentStore{contentID: "cid-abc123"}
	svc := newService(content, &fakeLedger{result: passport.AnchorResult{Token: "77", Confirmed: true}}, store.NewMemory())

	issued, err := svc.Issue(context.Background(), "farmer-1", validCrop(), validFarmer())
	require.NoError(t, err)

	view, err := svc.Certificate(context.Background(), issued.Passport.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Passport.ID, view.Passport.ID)
	assert.Equal(t, "https://agripass.example.com/verify/77", view.VerificationURL)

	_, err = svc.Certificate(context.Background(), "nonexistent-token-123")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
