package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"linegraph/model"
)

func TestHaversineDistance(t *testing.T) {
	// 伦敦 -> 巴黎 约 343.5 km
	london := model.Point{Lat: 51.5074, Lng: -0.1278}
	paris := model.Point{Lat: 48.8566, Lng: 2.3522}
	assert.InDelta(t, 343_500, HaversineDistance(london, paris), 1_000)
}

func TestHaversineDistance_Symmetric(t *testing.T) {
	a := model.Point{Lat: 30.5, Lng: 114.3}
	b := model.Point{Lat: 30.6, Lng: 114.4}
	assert.InDelta(t, HaversineDistance(a, b), HaversineDistance(b, a), 1e-9)
}

func TestEdgeWeight_SamePointIsZero(t *testing.T) {
	c := model.Coord{Lon: 12.5, Lat: 41.9}
	assert.Equal(t, 0.0, EdgeWeight(c, c))
}

func TestEdgeWeight_OneDegreeLatitude(t *testing.T) {
	w := EdgeWeight(model.Coord{Lon: 0, Lat: 0}, model.Coord{Lon: 0, Lat: 1})
	assert.InDelta(t, 111_195, w, 1)
}
