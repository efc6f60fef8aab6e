package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// PayloadFunc derives the QR payload of a seeded bin.
type PayloadFunc func(b *models.Bin) string

type demoBin struct {
	id, owner, resident string
	residentType        models.ResidentType
	binType             models.BinType
	size                models.BinSize
	location            string
	lat, lng, fill      float64
	freq                models.CollectionFrequency
	status              models.BinStatus
	daysAgo             int
}

var demoBins = []demoBin{
	{"BIN-SEED01-CMB", "Colombo Municipal Council", "Nimal Perera", models.ResidentHouse, models.BinTypeGeneral, models.BinSizeMedium, "Near Colombo Fort", 6.9344, 79.8428, 95, models.CollectWeekly, models.BinStatusActive, 30},
	{"BIN-SEED02-CMB", "Colombo Municipal Council", "Green Mart", models.ResidentShop, models.BinTypeRecyclable, models.BinSizeLarge, "Pettah Market", 6.9365, 79.8500, 72, models.CollectDaily, models.BinStatusActive, 21},
	{"BIN-SEED03-GMP", "Gampaha Urban Council", "Sunrise Apartments", models.ResidentApartment, models.BinTypeOrganic, models.BinSizeCommercial, "Gampaha Town", 7.0897, 79.9925, 45, models.CollectBiweekly, models.BinStatusActive, 14},
	{"BIN-SEED04-KDY", "Kandy Municipal Council", "Dharmaraja College", models.ResidentSchool, models.BinTypePlastic, models.BinSizeLarge, "Kandy Lake Road", 7.2906, 80.6337, 15, models.CollectWeekly, models.BinStatusActive, 10},
	{"BIN-SEED05-KDY", "Kandy Municipal Council", "Hill Street Office", models.ResidentOffice, models.BinTypeElectronic, models.BinSizeSmall, "Peradeniya Road", 7.2846, 80.6214, 0, models.CollectMonthly, models.BinStatusMaintenance, 5},
	{"BIN-SEED06-CMB", "Dehiwala-Mount Lavinia MC", "City Clinic", models.ResidentOther, models.BinTypeHazardous, models.BinSizeSmall, "Galle Road", 6.8390, 79.8654, 88, models.CollectWeekly, models.BinStatusInactive, 2},
}

// SeedDemoBins inserts a fixed set of demo bins. Bins that already exist
// are left untouched, so the call is safe on every start.
func SeedDemoBins(ctx context.Context, repo repositories.BinRepository, payload PayloadFunc) (int, error) {
	now := time.Now().UTC()
	created := 0
	for _, d := range demoBins {
		existing, err := repo.GetByBinID(ctx, d.id)
		if err != nil {
			return created, fmt.Errorf("error checking for existing bin %s: %w", d.id, err)
		}
		if existing != nil {
			utils.Logger.Debugf("Demo bin %s already exists; skipping seed.", d.id)
			continue
		}

		registered := now.AddDate(0, 0, -d.daysAgo)
		next := registered.AddDate(0, 0, 7)
		b := &models.Bin{
			BinID:               d.id,
			OwnerName:           d.owner,
			ResidentName:        d.resident,
			ResidentType:        d.residentType,
			Contact:             models.Contact{Phone: utils.TestPhoneNumberBase + utils.RandomNumericString(7), Email: d.id + "." + utils.TestEmailSuffix},
			BinType:             d.binType,
			BinSize:             d.size,
			Location:            d.location,
			Coordinates:         &models.Coordinates{Lat: d.lat, Lng: d.lng},
			CollectionFrequency: d.freq,
			Status:              d.status,
			RegistrationDate:    registered,
			NextCollection:      &next,
			TimeZone:            "Asia/Colombo",
		}
		b.SetFillLevel(d.fill)
		b.QRPayload = payload(b)

		if err := repo.Create(ctx, b); err != nil {
			return created, fmt.Errorf("failed to insert demo bin %s: %w", d.id, err)
		}
		created++
	}
	utils.Logger.Infof("Seeded %d demo bins (%d already present).", created, len(demoBins)-created)
	return created, nil
}
