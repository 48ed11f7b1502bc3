package factories

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/chrisdamba/crashlens/internal/models"
)

// Generate writes the four raw input files for a scenario into dir and
// returns their paths.
func Generate(dir string, s Scenario) (models.SourcePaths, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return models.SourcePaths{}, err
	}
	paths := models.SourcePaths{
		Crashes:         filepath.Join(dir, "crashes.csv"),
		Cameras:         filepath.Join(dir, "cameras.csv"),
		CameraLocations: filepath.Join(dir, "camera_locations.csv"),
		Congestion:      filepath.Join(dir, "congestion.csv"),
		Delimiter:       ",",
	}

	crashFactory := NewCrashFactory(s.Seed)
	crashes := make([]CrashRow, 0, s.Crashes)
	for i := 0; i < s.Crashes; i++ {
		crash := crashFactory.CreateCrash(s)
		crashes = append(crashes, crash)
		// exports repeat rows now and then
		if dirty(crashFactory.fake, s) {
			crashes = append(crashes, crash)
		}
	}

	cameraFactory := NewCameraFactory(s.Seed + 1)
	locations := make([]CameraLocationRow, 0, s.Cameras)
	var violations []CameraViolationRow
	for i := 0; i < s.Cameras; i++ {
		camera := cameraFactory.CreateCamera(s, i)
		locations = append(locations, cameraFactory.LocationRow(camera))
		violations = append(violations, cameraFactory.CreateViolations(s, camera)...)
	}

	congestionFactory := NewCongestionFactory(s.Seed + 2)
	var congestion []CongestionRow
	for i := 0; i < s.Segments; i++ {
		congestion = append(congestion, congestionFactory.CreateSegment(s, i)...)
	}

	files := []struct {
		path    string
		records interface{}
	}{
		{paths.Crashes, &crashes},
		{paths.Cameras, &violations},
		{paths.CameraLocations, &locations},
		{paths.Congestion, &congestion},
	}
	for _, f := range files {
		if err := writeCSV(f.path, f.records); err != nil {
			return models.SourcePaths{}, err
		}
	}

	log.Info().
		Str("dir", dir).
		Int("crashes", len(crashes)).
		Int("camera_rows", len(violations)).
		Int("congestion_rows", len(congestion)).
		Msg("Generated synthetic inputs")

	return paths, nil
}

func writeCSV(path string, records interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.Marshal(records, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
