package parser

import "testing"

var benchLines = []string{
	"[2020.12.13-02.11.01:195][404]LogTemp: Error: LogTemp Verbosity:Error",
	"[2020.01.01-00.00.00:000][  0]LogStreaming: Display: Flushing async loaders.",
	"[Warning]LogNet: connection closed",
	"continuation text that matches nothing at all",
	"LogTemp: Display: no brackets, still a continuation",
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Parse(benchLines[i%len(benchLines)])
	}
}

func BenchmarkIsHeader(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		IsHeader(benchLines[i%len(benchLines)])
	}
}
