package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetFillLevel_ClampsAndDerivesMonitorStatus(t *testing.T) {
	cases := []struct {
		in     float64
		level  float64
		status MonitorStatus
	}{
		{-5, 0, MonitorEmpty},
		{0, 0, MonitorEmpty},
		{10, 10, MonitorLow},
		{49.9, 49.9, MonitorLow},
		{50, 50, MonitorHalf},
		{79, 79, MonitorHalf},
		{80, 80, MonitorFull},
		{140, 100, MonitorFull},
	}
	for _, tc := range cases {
		b := &Bin{}
		b.SetFillLevel(tc.in)
		assert.Equal(t, tc.level, b.FillLevel, "in=%v", tc.in)
		assert.Equal(t, tc.status, b.MonitorStatus, "in=%v", tc.in)
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := &Bin{BinID: "BIN-A", Coordinates: &Coordinates{Lat: 1, Lng: 2}}
	c := orig.Clone()
	c.Coordinates.Lat = 9
	assert.Equal(t, 1.0, orig.Coordinates.Lat)
	assert.Equal(t, "BIN-A", c.GetID())
}

func TestCoordinatesEqual(t *testing.T) {
	assert.True(t, CoordinatesEqual(nil, nil))
	assert.False(t, CoordinatesEqual(&Coordinates{}, nil))
	assert.True(t, CoordinatesEqual(&Coordinates{Lat: 1, Lng: 2}, &Coordinates{Lat: 1, Lng: 2}))
	assert.False(t, CoordinatesEqual(&Coordinates{Lat: 1, Lng: 2}, &Coordinates{Lat: 1, Lng: 3}))
}
