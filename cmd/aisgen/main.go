// Command aisgen writes a synthetic AIS CSV export for local testing.
// The output mimics the Danish Maritime Authority export format, including
// the "# Timestamp" header quirk and a configurable share of broken rows.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

var header = []string{
	"# Timestamp", "Type of mobile", "MMSI", "Latitude", "Longitude",
	"Navigational status", "ROT", "SOG", "COG", "Heading",
	"IMO", "Callsign", "Name", "Ship type", "Width", "Length",
}

var navStatuses = []string{
	"Under way using engine",
	"At anchor",
	"Moored",
	"Engaged in fishing",
	"Unknown value",
}

var shipTypes = []string{"Cargo", "Tanker", "Fishing", "Passenger", "Pleasure"}

func main() {
	var (
		out         = flag.String("out", "ais.csv", "output CSV path")
		rows        = flag.Int("rows", 100000, "number of data rows")
		vessels     = flag.Int("vessels", 200, "number of distinct vessels")
		invalidRate = flag.Float64("invalid-rate", 0.02, "fraction of rows with a missing or junk field")
		seed        = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *rows; i++ {
		vessel := rng.Intn(*vessels)
		row := makeRow(rng, base, i, vessel)
		if rng.Float64() < *invalidRate {
			breakRow(rng, row)
		}
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows for %d vessels to %s\n", *rows, *vessels, *out)
}

func makeRow(rng *rand.Rand, base time.Time, i, vessel int) []string {
	mmsi := strconv.Itoa(219000000 + vessel)
	ts := base.Add(time.Duration(i) * 10 * time.Second)
	lat := 54.0 + rng.Float64()*4.0
	lon := 8.0 + rng.Float64()*7.0

	return []string{
		ts.Format("02/01/2006 15:04:05"),
		"Class A",
		mmsi,
		strconv.FormatFloat(lat, 'f', 6, 64),
		strconv.FormatFloat(lon, 'f', 6, 64),
		navStatuses[rng.Intn(len(navStatuses))],
		strconv.FormatFloat(rng.Float64()*20-10, 'f', 1, 64),
		strconv.FormatFloat(rng.Float64()*25, 'f', 1, 64),
		strconv.FormatFloat(rng.Float64()*360, 'f', 1, 64),
		strconv.Itoa(rng.Intn(360)),
		strconv.Itoa(9000000 + vessel),
		fmt.Sprintf("OU%04d", vessel),
		fmt.Sprintf("VESSEL %d", vessel),
		shipTypes[rng.Intn(len(shipTypes))],
		strconv.Itoa(8 + rng.Intn(30)),
		strconv.Itoa(40 + rng.Intn(300)),
	}
}

// breakRow corrupts one field the way real exports do: blank values,
// literal "nan" strings, or non-numeric junk in numeric columns.
func breakRow(rng *rand.Rand, row []string) {
	switch rng.Intn(4) {
	case 0:
		row[2] = "" // MMSI missing
	case 1:
		row[3] = "nan" // Latitude
	case 2:
		row[5] = "" // Navigational status
	case 3:
		row[6] = "abc" // ROT junk
	}
}
