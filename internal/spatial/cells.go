package spatial

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chrisdamba/crashlens/internal/models"
)

// CellKey places loc on a fixed grid of sizeM square cells anchored at 0,0.
// Rows are sizeM tall; within a row the cell width in degrees follows the
// latitude of the row centre so cells stay roughly square.
func CellKey(loc models.Location, sizeM float64) (x, y int64) {
	northM := degreesToRadians(loc.Lat) * models.EarthRadiusMeters
	y = int64(math.Floor(northM / sizeM))

	rowLat := radiansToDegrees((float64(y) + 0.5) * sizeM / models.EarthRadiusMeters)
	eastM := degreesToRadians(loc.Lon) * models.EarthRadiusMeters * math.Cos(degreesToRadians(rowLat))
	x = int64(math.Floor(eastM / sizeM))

	return x, y
}

// CellID formats the cell of loc as G{size}_{x}_{y}.
func CellID(loc models.Location, sizeM float64) string {
	x, y := CellKey(loc, sizeM)
	return fmt.Sprintf("G%s_%d_%d", strconv.FormatFloat(sizeM, 'f', -1, 64), x, y)
}
