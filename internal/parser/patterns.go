package parser

import "regexp"

// Compiled patterns for header recognition.
var (
	// headerPattern matches the start of a UE log message:
	//
	//	[2020.12.13-02.11.01:195][  0]LogTemp: Display: Hello
	//	[Warning]LogNet: connection closed
	//
	// The leading date bracket is optional and only recognized when it
	// matches the UE timestamp shape. The next bracket is the verbosity
	// tag, then an identifier-like category followed by a colon.
	// Captures: (1) date (optional), (2) verbosity, (3) category, (4) body.
	// The body group strips at most one conventional leading space.
	headerPattern = regexp.MustCompile(
		`^(?:\[(\d+\.\d+\.\d+-\d+\.\d+\.\d+:\d+)\])?\[([^\]]+)\]([A-Za-z_][A-Za-z0-9_]*): ?(.*)$`,
	)

	// timeZonePattern extracts the UTC offset from the ICU preamble line:
	//
	//	LogICUInternationalization: ICU TimeZone Detection - Raw Offset: +9:00, Platform Override: ''
	//
	// Captures: (1) signed hours, (2) minutes.
	timeZonePattern = regexp.MustCompile(`Raw Offset:\s*([+-]?\d+):(\d+)`)
)

// timeZoneMarker is the cheap substring check before running timeZonePattern.
const timeZoneMarker = "TimeZone Detection"
