package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// Records loads a JSON array fixture into a slice of entity pointers, ready
// to be passed to Seed.
//
//	countries := testsupport.Records[domain.Country](t, testsupport.FixturePath("countries.json"))
func Records[E any](t testing.TB, path string) []*E {
	t.Helper()

	var records []*E
	LoadFixtureJSON(t, path, &records)
	if len(records) == 0 {
		t.Fatalf("fixture %s holds no records", path)
	}
	return records
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
