package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4"
	"github.com/smartwaste/bin-registry/internal/constants"
	"github.com/smartwaste/bin-registry/internal/dtos"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

/*──────────────────────────────────────────────────────────────────────────────
  Workflow states (logged on every transition)
──────────────────────────────────────────────────────────────────────────────*/

type WorkflowState string

const (
	StateDraft      WorkflowState = "Draft"
	StateValidating WorkflowState = "Validating"
	StateValid      WorkflowState = "Valid"
	StateInvalid    WorkflowState = "Invalid"
	StateQRCheck    WorkflowState = "QRCheck"
	StatePersisted  WorkflowState = "Persisted"
)

type QRDecision string

const (
	QRRegenerate QRDecision = "Regenerate"
	QRUnchanged  QRDecision = "Unchanged"
)

// DecideQR compares the fields the payload is derived from.
func DecideQR(before, after *models.Bin) QRDecision {
	if before.BinType != after.BinType || !models.CoordinatesEqual(before.Coordinates, after.Coordinates) {
		return QRRegenerate
	}
	return QRUnchanged
}

// RegistrationNotifier is told about every newly persisted bin. It runs
// detached from the request and must not block for long.
type RegistrationNotifier interface {
	NotifyRegistered(ctx context.Context, bin *models.Bin)
}

/*──────────────────────────────────────────────────────────────────────────────
  Validation rules
──────────────────────────────────────────────────────────────────────────────*/

type binRules struct {
	ResidentName        string           `json:"residentName" validate:"required"`
	ResidentType        string           `json:"residentType" validate:"oneof=House Shop Apartment School Office Other"`
	Contact             contactRules     `json:"contact"`
	BinType             string           `json:"binType" validate:"oneof=general recyclable organic plastic electronic hazardous"`
	BinSize             string           `json:"binSize" validate:"oneof=small medium large commercial"`
	Coordinates         *coordinateRules `json:"coordinates" validate:"required"`
	CollectionFrequency string           `json:"collectionFrequency" validate:"oneof=daily weekly biweekly monthly"`
	Status              string           `json:"status" validate:"oneof=active inactive maintenance"`
}

type contactRules struct {
	Phone string `json:"phone" validate:"required,phone_loose"`
	Email string `json:"email" validate:"required,email"`
}

type coordinateRules struct {
	Lat float64 `json:"lat" validate:"lat"`
	Lng float64 `json:"lng" validate:"lng"`
}

func rulesFor(b *models.Bin) binRules {
	r := binRules{
		ResidentName:        b.ResidentName,
		ResidentType:        string(b.ResidentType),
		Contact:             contactRules{Phone: b.Contact.Phone, Email: b.Contact.Email},
		BinType:             string(b.BinType),
		BinSize:             string(b.BinSize),
		CollectionFrequency: string(b.CollectionFrequency),
		Status:              string(b.Status),
	}
	if b.Coordinates != nil {
		r.Coordinates = &coordinateRules{Lat: b.Coordinates.Lat, Lng: b.Coordinates.Lng}
	}
	return r
}

/*──────────────────────────────────────────────────────────────────────────────
  Service
──────────────────────────────────────────────────────────────────────────────*/

type BinService struct {
	repo     repositories.BinRepository
	location *LocationService
	schedule *ScheduleService
	notifier RegistrationNotifier
	ids      *internal_utils.BinIDGenerator
	validate *validator.Validate
	now      func() time.Time
}

// NewBinService wires the registration/edit workflow. notifier may be nil.
func NewBinService(
	repo repositories.BinRepository,
	location *LocationService,
	schedule *ScheduleService,
	notifier RegistrationNotifier,
) *BinService {
	return &BinService{
		repo:     repo,
		location: location,
		schedule: schedule,
		notifier: notifier,
		ids:      internal_utils.NewBinIDGenerator(),
		validate: internal_utils.NewValidator(),
		now:      time.Now,
	}
}

// validateBin runs the field rules and merges them into verr.
func (s *BinService) validateBin(b *models.Bin, verr *utils.ValidationError) error {
	if math.IsNaN(b.FillLevel) {
		verr.Add("fillLevel", "must be a number")
	}
	if err := s.validate.Struct(rulesFor(b)); err != nil {
		var fieldErrs *utils.ValidationError
		if !errors.As(internal_utils.ToValidationError(err), &fieldErrs) {
			return err
		}
		for field, msg := range fieldErrs.Fields {
			verr.Add(field, msg)
		}
	}
	return verr.OrNil()
}

// Register validates a draft and persists it as a new bin. The returned bin
// is the stored record.
func (s *BinService) Register(ctx context.Context, req dtos.RegisterBinRequest) (*models.Bin, error) {
	log := utils.Logger.WithField("workflow", "register")
	log.WithField("state", StateDraft).Debug("[BinService] draft received")

	bin := &models.Bin{
		OwnerName:           req.OwnerName,
		ResidentName:        req.ResidentName,
		ResidentType:        models.ResidentType(utils.FirstNonEmpty(string(req.ResidentType), string(models.ResidentHouse))),
		Contact:             req.Contact,
		BinType:             models.BinType(utils.FirstNonEmpty(string(req.BinType), string(models.BinTypeGeneral))),
		BinSize:             models.BinSize(utils.FirstNonEmpty(string(req.BinSize), string(models.BinSizeMedium))),
		Location:            req.Location,
		Address:             req.Address,
		CollectionFrequency: models.CollectionFrequency(utils.FirstNonEmpty(string(req.CollectionFrequency), string(models.CollectWeekly))),
		Status:              models.BinStatus(utils.FirstNonEmpty(string(req.Status), string(models.BinStatusActive))),
	}
	bin.SetFillLevel(utils.Val(req.FillLevel))

	log.WithField("state", StateValidating).Debug("[BinService] validating draft")
	verr := utils.NewValidationError()
	switch {
	case req.Coordinates.Partial():
		verr.Add("coordinates", "latitude and longitude must both be set")
	case req.Coordinates.Complete():
		c := req.Coordinates.Value()
		bin.Coordinates = &c
	}
	if err := s.validateBin(bin, verr); err != nil {
		log.WithField("state", StateInvalid).WithError(err).Info("[BinService] draft rejected")
		return nil, err
	}
	log.WithField("state", StateValid).Debug("[BinService] draft valid")

	now := s.now().UTC()
	bin.BinID = s.ids.Generate()
	bin.RegistrationDate = now
	s.location.ApplyCoordinates(ctx, bin, *bin.Coordinates)
	bin.QRPayload = internal_utils.EncodeBinQRPayload(bin)
	s.schedule.Reschedule(bin, now)

	if err := s.repo.Create(ctx, bin); err != nil {
		log.WithError(err).WithField("bin_id", bin.BinID).Error("[BinService] failed to persist new bin")
		return nil, &utils.PersistenceError{Op: "create", Err: err}
	}
	binsRegisteredTotal.Inc()
	log.WithField("state", StatePersisted).WithField("bin_id", bin.BinID).Info("[BinService] bin registered")

	if s.notifier != nil {
		go s.notifier.NotifyRegistered(context.WithoutCancel(ctx), bin.Clone())
	}
	return bin, nil
}

// Update applies a partial edit under optimistic locking. The QR payload is
// regenerated only when the bin type or coordinates differ from the stored
// record the edit was applied to.
func (s *BinService) Update(ctx context.Context, binID string, req dtos.UpdateBinRequest) (*models.Bin, error) {
	if req.BinID != nil && *req.BinID != binID {
		return nil, utils.ErrBinIDImmutable
	}
	log := utils.Logger.WithField("workflow", "edit").WithField("bin_id", binID)

	var updated *models.Bin
	var decision QRDecision
	err := s.repo.UpdateWithRetry(ctx, binID, func(cur *models.Bin) error {
		before := cur.Clone()
		log.WithField("state", StateDraft).Debug("[BinService] applying edit")

		verr := utils.NewValidationError()
		applyPatch(cur, req, verr)

		log.WithField("state", StateValidating).Debug("[BinService] validating edit")
		if err := s.validateBin(cur, verr); err != nil {
			log.WithField("state", StateInvalid).WithError(err).Info("[BinService] edit rejected")
			return err
		}

		coordsChanged := !models.CoordinatesEqual(before.Coordinates, cur.Coordinates)
		if coordsChanged || cur.Location == "" {
			s.location.ApplyCoordinates(ctx, cur, *cur.Coordinates)
		}

		decision = DecideQR(before, cur)
		log.WithField("state", StateQRCheck).WithField("decision", decision).Debug("[BinService] QR check")
		if decision == QRRegenerate {
			cur.QRPayload = internal_utils.EncodeBinQRPayload(cur)
		}

		if cur.CollectionFrequency != before.CollectionFrequency || cur.NextCollection == nil {
			s.schedule.Reschedule(cur, s.now())
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("update", err)
	}
	qrDecisionsTotal.WithLabelValues(string(decision)).Inc()
	log.WithField("state", StatePersisted).WithField("decision", decision).Info("[BinService] bin updated")
	return updated, nil
}

func applyPatch(b *models.Bin, req dtos.UpdateBinRequest, verr *utils.ValidationError) {
	if req.OwnerName != nil {
		b.OwnerName = *req.OwnerName
	}
	if req.ResidentName != nil {
		b.ResidentName = *req.ResidentName
	}
	if req.ResidentType != nil {
		b.ResidentType = *req.ResidentType
	}
	if req.Contact != nil {
		if req.Contact.Phone != nil {
			b.Contact.Phone = *req.Contact.Phone
		}
		if req.Contact.Email != nil {
			b.Contact.Email = *req.Contact.Email
		}
	}
	if req.BinType != nil {
		b.BinType = *req.BinType
	}
	if req.BinSize != nil {
		b.BinSize = *req.BinSize
	}
	if req.Location != nil {
		b.Location = *req.Location
	}
	if req.Address != nil {
		b.Address = *req.Address
	}
	if req.Coordinates.Set {
		switch in := req.Coordinates.Value; {
		case in == nil:
			verr.Add("coordinates", "cannot be cleared")
		case !in.Complete():
			verr.Add("coordinates", "latitude and longitude must both be set")
		default:
			c := in.Value()
			b.Coordinates = &c
		}
	}
	if req.CollectionFrequency != nil {
		b.CollectionFrequency = *req.CollectionFrequency
	}
	if req.Status != nil {
		b.Status = *req.Status
	}
	if req.FillLevel != nil {
		b.SetFillLevel(*req.FillLevel)
	}
}

func mapStoreErr(op string, err error) error {
	var verr *utils.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return utils.ErrBinNotFound
	case errors.As(err, &verr),
		errors.Is(err, utils.ErrRowVersionConflict),
		errors.Is(err, utils.ErrBinIDImmutable):
		return err
	default:
		return &utils.PersistenceError{Op: op, Err: err}
	}
}

func (s *BinService) Get(ctx context.Context, binID string) (*models.Bin, error) {
	b, err := s.repo.GetByBinID(ctx, binID)
	if err != nil {
		return nil, mapStoreErr("get", err)
	}
	if b == nil {
		return nil, utils.ErrBinNotFound
	}
	return b, nil
}

func (s *BinService) Delete(ctx context.Context, binID string) error {
	if err := s.repo.Delete(ctx, binID); err != nil {
		return mapStoreErr("delete", err)
	}
	utils.Logger.WithField("bin_id", binID).Info("[BinService] bin deleted")
	return nil
}

func (s *BinService) List(ctx context.Context) ([]*models.Bin, error) {
	bins, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapStoreErr("list", err)
	}
	return bins, nil
}

// Project returns the filtered, sorted view plus statistics over every bin.
func (s *BinService) Project(ctx context.Context, filter BinFilter, sortKey SortKey) (*BinProjection, error) {
	if !ValidSortKey(string(sortKey)) {
		return nil, utils.NewValidationError().Add("sort", "must be one of: newest oldest name-asc name-desc fill-level")
	}
	bins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	p := ProjectBins(bins, filter, sortKey)
	return &p, nil
}

/*──────────────────────────────────────────────────────────────────────────────
  Collector flows
──────────────────────────────────────────────────────────────────────────────*/

type ScanResult struct {
	Bin            *models.Bin              `json:"bin"`
	Scanned        internal_utils.QRPayload `json:"scanned"`
	CurrentPayload string                   `json:"currentPayload"`
	// Stale is set when the sticker no longer matches the stored bin.
	Stale bool `json:"stale"`
}

// FindByQRPayload resolves a scanned sticker to its bin.
func (s *BinService) FindByQRPayload(ctx context.Context, payload string) (*ScanResult, error) {
	scanned, err := internal_utils.DecodeQRPayload(payload)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, scanned.BinID)
	if err != nil {
		return nil, err
	}
	canonical := internal_utils.EncodeQRPayload(scanned.BinID, scanned.BinType, scanned.Lat, scanned.Lng)
	return &ScanResult{
		Bin:            b,
		Scanned:        scanned,
		CurrentPayload: b.QRPayload,
		Stale:          canonical != b.QRPayload,
	}, nil
}

// UpdateFillLevel clamps level to [0,100] and refreshes the monitor status.
func (s *BinService) UpdateFillLevel(ctx context.Context, binID string, level float64) (*models.Bin, error) {
	if math.IsNaN(level) {
		return nil, utils.NewValidationError().Add("fillLevel", "must be a number")
	}
	var updated *models.Bin
	err := s.repo.UpdateWithRetry(ctx, binID, func(cur *models.Bin) error {
		cur.SetFillLevel(level)
		updated = cur
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("update level", err)
	}
	return updated, nil
}

// MarkEmptied records a collection: fill drops to zero and the next
// collection date moves forward.
func (s *BinService) MarkEmptied(ctx context.Context, binID string) (*models.Bin, error) {
	now := s.now()
	var updated *models.Bin
	err := s.repo.UpdateWithRetry(ctx, binID, func(cur *models.Bin) error {
		cur.SetFillLevel(0)
		collected := now.UTC()
		cur.LastCollected = &collected
		s.schedule.Reschedule(cur, now)
		updated = cur
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("mark emptied", err)
	}
	utils.Logger.WithField("bin_id", binID).Info("[BinService] bin emptied")
	return updated, nil
}

type NearbyBin struct {
	*models.Bin
	DistanceKm float64 `json:"distanceKm"`
}

// ListNearby returns bins within radiusKm of center, nearest first.
func (s *BinService) ListNearby(ctx context.Context, center models.Coordinates, radiusKm float64) ([]NearbyBin, error) {
	verr := utils.NewValidationError()
	if internal_utils.ValidateCoordinates(center.Lat, center.Lng) != nil {
		verr.Add("coordinates", "must be finite and within range")
	}
	if math.IsNaN(radiusKm) || radiusKm < 0 || radiusKm > constants.MaxNearbyRadiusKm {
		verr.Add("radius_km", "must be between 0 and 50")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = constants.DefaultNearbyRadiusKm
	}

	bins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []NearbyBin{}
	for _, b := range bins {
		if b.Coordinates == nil {
			continue
		}
		if d := internal_utils.DistanceKm(center, *b.Coordinates); d <= radiusKm {
			out = append(out, NearbyBin{Bin: b, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// ListInBounds returns bins inside an inclusive lat/lng box.
func (s *BinService) ListInBounds(ctx context.Context, box internal_utils.Bounds) ([]*models.Bin, error) {
	verr := utils.NewValidationError()
	if internal_utils.ValidateCoordinates(box.LatMin, box.LngMin) != nil ||
		internal_utils.ValidateCoordinates(box.LatMax, box.LngMax) != nil {
		verr.Add("bounds", "corners must be valid coordinates")
	} else if box.LatMin > box.LatMax || box.LngMin > box.LngMax {
		verr.Add("bounds", "min must not exceed max")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	bins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*models.Bin{}
	for _, b := range bins {
		if b.Coordinates != nil && box.Contains(*b.Coordinates) {
			out = append(out, b)
		}
	}
	return out, nil
}
