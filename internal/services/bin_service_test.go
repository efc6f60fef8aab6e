package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/smartwaste/bin-registry/internal/dtos"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binIDPattern = regexp.MustCompile(`^BIN-[0-9A-Z]+-[0-9A-Z]{3}$`)

func registerBin(t *testing.T, svc *BinService) *models.Bin {
	t.Helper()
	b, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	return b
}

func TestRegister_PersistsDerivedFields(t *testing.T) {
	repo := repositories.NewMemoryBinRepository()
	svc := newTestBinService(repo, nil)

	b := registerBin(t, svc)

	assert.Regexp(t, binIDPattern, b.BinID)
	assert.Equal(t, models.ResidentHouse, b.ResidentType)
	assert.Equal(t, models.BinSizeMedium, b.BinSize)
	assert.Equal(t, models.CollectWeekly, b.CollectionFrequency)
	assert.Equal(t, models.BinStatusActive, b.Status)
	assert.Equal(t, models.MonitorEmpty, b.MonitorStatus)
	assert.Equal(t, "Auto-detected at 7.29060, 80.63370", b.Location)
	assert.Equal(t, "Asia/Colombo", b.TimeZone)
	assert.Equal(t, "SMARTWASTE:"+b.BinID+":general:7.290600:80.633700", b.QRPayload)
	require.NotNil(t, b.NextCollection)
	assert.True(t, b.NextCollection.After(b.RegistrationDate))

	stored, err := repo.GetByBinID(context.Background(), b.BinID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, b.QRPayload, stored.QRPayload)
	assert.Equal(t, int64(1), stored.RowVersion)
}

func TestRegister_KeepsUserLocation(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	req := validRegistration()
	req.Location = "Behind the temple"

	b, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Behind the temple", b.Location)
}

func TestRegister_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *dtos.RegisterBinRequest)
		fields []string
	}{
		{"missing resident", func(r *dtos.RegisterBinRequest) { r.ResidentName = "" }, []string{"residentName"}},
		{"missing contact", func(r *dtos.RegisterBinRequest) { r.Contact = models.Contact{} }, []string{"contact.phone", "contact.email"}},
		{"short phone", func(r *dtos.RegisterBinRequest) { r.Contact.Phone = "12345" }, []string{"contact.phone"}},
		{"letters in phone", func(r *dtos.RegisterBinRequest) { r.Contact.Phone = "077-CALL-NOW1" }, []string{"contact.phone"}},
		{"bad email", func(r *dtos.RegisterBinRequest) { r.Contact.Email = "not-an-email" }, []string{"contact.email"}},
		{"no coordinates", func(r *dtos.RegisterBinRequest) { r.Coordinates = nil }, []string{"coordinates"}},
		{"half coordinates", func(r *dtos.RegisterBinRequest) { r.Coordinates.Lng = nil }, []string{"coordinates"}},
		{"latitude out of range", func(r *dtos.RegisterBinRequest) { r.Coordinates.Lat = utils.Ptr(91.0) }, []string{"coordinates.lat"}},
		{"unknown bin type", func(r *dtos.RegisterBinRequest) { r.BinType = "glass" }, []string{"binType"}},
		{"unknown frequency", func(r *dtos.RegisterBinRequest) { r.CollectionFrequency = "hourly" }, []string{"collectionFrequency"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repositories.NewMemoryBinRepository()
			svc := newTestBinService(repo, nil)
			req := validRegistration()
			tc.mutate(&req)

			_, err := svc.Register(context.Background(), req)
			var verr *utils.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}

			all, _ := repo.List(context.Background())
			assert.Empty(t, all)
		})
	}
}

func TestRegister_StoreFailureIsRetryable(t *testing.T) {
	notifier := newRecordingNotifier()
	svc := newTestBinService(failingCreateRepo{repositories.NewMemoryBinRepository()}, notifier)

	b, err := svc.Register(context.Background(), validRegistration())
	assert.Nil(t, b)
	var perr *utils.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create", perr.Op)

	select {
	case <-notifier.ch:
		t.Fatal("notifier called for a bin that was never stored")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegister_NotifiesAfterPersist(t *testing.T) {
	notifier := newRecordingNotifier()
	svc := newTestBinService(repositories.NewMemoryBinRepository(), notifier)

	b := registerBin(t, svc)
	select {
	case got := <-notifier.ch:
		assert.Equal(t, b.BinID, got.BinID)
		assert.NotSame(t, b, got)
	case <-time.After(time.Second):
		t.Fatal("notifier not called")
	}
}

func TestUpdate_ResidentNameOnlyKeepsQR(t *testing.T) {
	repo := repositories.NewMemoryBinRepository()
	svc := newTestBinService(repo, nil)
	b := registerBin(t, svc)

	updated, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{ResidentName: utils.Ptr("Kamala Silva")})
	require.NoError(t, err)
	assert.Equal(t, "Kamala Silva", updated.ResidentName)
	assert.Equal(t, b.QRPayload, updated.QRPayload)
	assert.Equal(t, int64(2), updated.RowVersion)
}

func TestUpdate_BinTypeChangeRegeneratesQR(t *testing.T) {
	repo := repositories.NewMemoryBinRepository()
	svc := newTestBinService(repo, nil)
	b := registerBin(t, svc)

	updated, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{BinType: utils.Ptr(models.BinTypeHazardous)})
	require.NoError(t, err)
	assert.NotEqual(t, b.QRPayload, updated.QRPayload)

	decoded, err := internal_utils.DecodeQRPayload(updated.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, models.BinTypeHazardous, decoded.BinType)

	stored, _ := repo.GetByBinID(context.Background(), b.BinID)
	assert.Equal(t, updated.QRPayload, stored.QRPayload)
}

func TestUpdate_MovedBinRefreshesAutoLocation(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)

	updated, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{
		Coordinates: dtos.NullableCoordinates{Set: true, Value: &dtos.CoordinatesInput{Lat: utils.Ptr(7.3), Lng: utils.Ptr(80.64)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Auto-detected at 7.30000, 80.64000", updated.Location)
	assert.Contains(t, updated.QRPayload, ":7.300000:80.640000")
}

func TestUpdate_ClearingCoordinatesIsRejected(t *testing.T) {
	repo := repositories.NewMemoryBinRepository()
	svc := newTestBinService(repo, nil)
	b := registerBin(t, svc)

	_, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{
		ResidentName: utils.Ptr("Changed"),
		Coordinates:  dtos.NullableCoordinates{Set: true},
	})
	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "coordinates")

	stored, _ := repo.GetByBinID(context.Background(), b.BinID)
	assert.Equal(t, "Nimal Perera", stored.ResidentName)
	assert.Equal(t, int64(1), stored.RowVersion)
}

func TestUpdate_BinIDIsImmutable(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)

	_, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{BinID: utils.Ptr("BIN-OTHER-123")})
	assert.ErrorIs(t, err, utils.ErrBinIDImmutable)

	_, err = svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{BinID: utils.Ptr(b.BinID)})
	assert.NoError(t, err)
}

func TestUpdate_UnknownBin(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	_, err := svc.Update(context.Background(), "BIN-NOPE-000", dtos.UpdateBinRequest{ResidentName: utils.Ptr("x")})
	assert.ErrorIs(t, err, utils.ErrBinNotFound)
}

func TestUpdate_FrequencyChangeReschedules(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)
	weekly := *b.NextCollection

	updated, err := svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{
		CollectionFrequency: utils.Ptr(models.CollectMonthly),
	})
	require.NoError(t, err)
	assert.True(t, updated.NextCollection.After(weekly))
}

func TestDecideQR(t *testing.T) {
	base := &models.Bin{BinType: models.BinTypeGeneral, Coordinates: &models.Coordinates{Lat: 1, Lng: 2}}

	same := base.Clone()
	same.ResidentName = "other"
	assert.Equal(t, QRUnchanged, DecideQR(base, same))

	retyped := base.Clone()
	retyped.BinType = models.BinTypePlastic
	assert.Equal(t, QRRegenerate, DecideQR(base, retyped))

	moved := base.Clone()
	moved.Coordinates.Lng = 2.000001
	assert.Equal(t, QRRegenerate, DecideQR(base, moved))
}

func TestGetAndDelete(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)

	got, err := svc.Get(context.Background(), b.BinID)
	require.NoError(t, err)
	assert.Equal(t, b.BinID, got.BinID)

	require.NoError(t, svc.Delete(context.Background(), b.BinID))
	_, err = svc.Get(context.Background(), b.BinID)
	assert.ErrorIs(t, err, utils.ErrBinNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), b.BinID), utils.ErrBinNotFound)
}

func TestProject_RejectsUnknownSort(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	_, err := svc.Project(context.Background(), BinFilter{}, "random")
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFindByQRPayload(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)

	res, err := svc.FindByQRPayload(context.Background(), b.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, b.BinID, res.Bin.BinID)
	assert.False(t, res.Stale)

	old := b.QRPayload
	_, err = svc.Update(context.Background(), b.BinID, dtos.UpdateBinRequest{BinType: utils.Ptr(models.BinTypeOrganic)})
	require.NoError(t, err)

	res, err = svc.FindByQRPayload(context.Background(), old)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Contains(t, res.CurrentPayload, ":organic:")

	_, err = svc.FindByQRPayload(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, internal_utils.ErrInvalidQRPayload)

	_, err = svc.FindByQRPayload(context.Background(), "SMARTWASTE:BIN-GONE-000:general:1.000000:2.000000")
	assert.ErrorIs(t, err, utils.ErrBinNotFound)
}

func TestUpdateFillLevel_ClampsAndDerivesStatus(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	b := registerBin(t, svc)

	got, err := svc.UpdateFillLevel(context.Background(), b.BinID, 130)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.FillLevel)
	assert.Equal(t, models.MonitorFull, got.MonitorStatus)

	got, err = svc.UpdateFillLevel(context.Background(), b.BinID, 35)
	require.NoError(t, err)
	assert.Equal(t, models.MonitorLow, got.MonitorStatus)

	_, err = svc.UpdateFillLevel(context.Background(), "BIN-NOPE-000", 10)
	assert.ErrorIs(t, err, utils.ErrBinNotFound)
}

func TestMarkEmptied(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	fixed := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	b := registerBin(t, svc)
	_, err := svc.UpdateFillLevel(context.Background(), b.BinID, 88)
	require.NoError(t, err)

	got, err := svc.MarkEmptied(context.Background(), b.BinID)
	require.NoError(t, err)
	assert.Zero(t, got.FillLevel)
	assert.Equal(t, models.MonitorEmpty, got.MonitorStatus)
	require.NotNil(t, got.LastCollected)
	assert.True(t, got.LastCollected.Equal(fixed))
	require.NotNil(t, got.NextCollection)
	assert.Equal(t, 10, got.NextCollection.Day())
}

func TestListNearbyAndInBounds(t *testing.T) {
	svc := newTestBinService(repositories.NewMemoryBinRepository(), nil)
	near := registerBin(t, svc)

	far := validRegistration()
	far.Coordinates = &dtos.CoordinatesInput{Lat: utils.Ptr(6.9271), Lng: utils.Ptr(79.8612)}
	farBin, err := svc.Register(context.Background(), far)
	require.NoError(t, err)

	center := models.Coordinates{Lat: 7.29, Lng: 80.63}
	got, err := svc.ListNearby(context.Background(), center, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.BinID, got[0].BinID)
	assert.Less(t, got[0].DistanceKm, 1.0)

	got, err = svc.ListNearby(context.Background(), center, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.ListNearby(context.Background(), models.Coordinates{Lat: 7.1, Lng: 80.25}, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.LessOrEqual(t, got[0].DistanceKm, got[1].DistanceKm)

	_, err = svc.ListNearby(context.Background(), center, 500)
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))

	inBox, err := svc.ListInBounds(context.Background(), internal_utils.Bounds{LatMin: 6.8, LatMax: 7.0, LngMin: 79.8, LngMax: 80.0})
	require.NoError(t, err)
	require.Len(t, inBox, 1)
	assert.Equal(t, farBin.BinID, inBox[0].BinID)

	_, err = svc.ListInBounds(context.Background(), internal_utils.Bounds{LatMin: 8, LatMax: 7, LngMin: 79, LngMax: 80})
	assert.True(t, errors.As(err, &verr))
}
