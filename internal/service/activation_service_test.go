package service

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/stretchr/testify/require"
)

// fakeActivationRepo is an in-memory stand-in for the postgres repository.
type fakeActivationRepo struct {
	seq     int64
	records map[int64]*domain.ActivationCode
}

func newFakeActivationRepo() *fakeActivationRepo {
	return &fakeActivationRepo{records: make(map[int64]*domain.ActivationCode)}
}

func (f *fakeActivationRepo) Create(_ context.Context, userID int64, code string, expiresAt time.Time) (*domain.ActivationCode, error) {
	f.seq++
	rec := &domain.ActivationCode{
		ID:        f.seq,
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.records[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (f *fakeActivationRepo) FindUnused(_ context.Context, userID int64, code string) (*domain.ActivationCode, error) {
	var latest *domain.ActivationCode
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Code == code && rec.UsedAt == nil {
			if latest == nil || rec.ID > latest.ID {
				latest = rec
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeActivationRepo) MarkUsed(_ context.Context, id int64) (bool, error) {
	rec, ok := f.records[id]
	if !ok || rec.UsedAt != nil {
		return false, nil
	}
	now := time.Now()
	rec.UsedAt = &now
	return true, nil
}

func newTestActivationService(t *testing.T, repo *fakeActivationRepo) *activationService {
	t.Helper()
	svc, ok := NewActivationService(repo).(*activationService)
	require.True(t, ok)
	return svc
}

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerateCodeFormat(t *testing.T) {
	svc := newTestActivationService(t, newFakeActivationRepo())

	for i := 0; i < 200; i++ {
		code, err := svc.generateCode()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 1_000_000)
	}
}

func TestGenerateCodeLeftPads(t *testing.T) {
	svc := newTestActivationService(t, newFakeActivationRepo())

	// A zero random source must yield "000000", not "0".
	svc.random = bytes.NewReader(make([]byte, 64))
	code, err := svc.generateCode()
	require.NoError(t, err)
	require.Equal(t, "000000", code)
}

func TestCreateActivation(t *testing.T) {
	repo := newFakeActivationRepo()
	svc := newTestActivationService(t, repo)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	issued, err := svc.CreateActivation(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Regexp(t, sixDigits, issued.Code)
	require.Equal(t, base.Add(24*time.Hour), issued.ExpiresAt)

	rec, err := repo.FindUnused(context.Background(), 1, issued.Code)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.False(t, rec.IsUsed())
}

func TestVerifyCodeUnknownCode(t *testing.T) {
	svc := newTestActivationService(t, newFakeActivationRepo())

	err := svc.VerifyCode(context.Background(), 1, "123456")
	require.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestVerifyCodeScopedToUser(t *testing.T) {
	repo := newFakeActivationRepo()
	svc := newTestActivationService(t, repo)

	issued, err := svc.CreateActivation(context.Background(), 1, time.Hour)
	require.NoError(t, err)

	// The same code presented for a different user never matches.
	err = svc.VerifyCode(context.Background(), 2, issued.Code)
	require.ErrorIs(t, err, domain.ErrInvalidCode)

	require.NoError(t, svc.VerifyCode(context.Background(), 1, issued.Code))
}

func TestVerifyCodeExpiredLeavesRecordUnconsumed(t *testing.T) {
	repo := newFakeActivationRepo()
	svc := newTestActivationService(t, repo)

	base := time.Now()
	svc.now = func() time.Time { return base }

	issued, err := svc.CreateActivation(context.Background(), 1, time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	err = svc.VerifyCode(context.Background(), 1, issued.Code)
	require.ErrorIs(t, err, domain.ErrCodeExpired)

	// The expired record was not consumed.
	rec, err := repo.FindUnused(context.Background(), 1, issued.Code)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.False(t, rec.IsUsed())
}

func TestVerifyCodeSingleUse(t *testing.T) {
	repo := newFakeActivationRepo()
	svc := newTestActivationService(t, repo)

	issued, err := svc.CreateActivation(context.Background(), 1, time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyCode(context.Background(), 1, issued.Code))

	// A consumed code looks exactly like a wrong one.
	err = svc.VerifyCode(context.Background(), 1, issued.Code)
	require.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestMultipleOutstandingCodes(t *testing.T) {
	repo := newFakeActivationRepo()
	svc := newTestActivationService(t, repo)

	first, err := svc.CreateActivation(context.Background(), 1, time.Hour)
	require.NoError(t, err)
	second, err := svc.CreateActivation(context.Background(), 1, time.Hour)
	require.NoError(t, err)

	// Each outstanding code is independently checkable.
	require.NoError(t, svc.VerifyCode(context.Background(), 1, second.Code))
	if first.Code != second.Code {
		require.NoError(t, svc.VerifyCode(context.Background(), 1, first.Code))
	}
}
