// Package targets holds the table of supported chip targets and the per-target
// values (display name, toolchain prefix, reference-manual URLs) used by the
// build matrix and the substitution tables.
package targets

import (
	"slices"
	"strings"
)

// Generic is the sentinel target used when no target was requested. Jobs for
// the generic target are built without target tags or macros.
const Generic = "generic"

// DefaultToolchainPrefix is used for every target without an explicit prefix.
const DefaultToolchainPrefix = "riscv32-esp-elf"

const docsBaseURL = "https://www.espressif.com/sites/default/files/documentation/"

// Languages lists every supported documentation language in build order.
var Languages = []string{"en", "zh_CN"}

// Target describes one chip target.
type Target struct {
	ID              string
	Name            string
	ToolchainPrefix string
	TRMEnURL        string
	TRMCnURL        string
	DatasheetEnURL  string
	DatasheetCnURL  string
}

// CfgPrefix is the prefix used by Kconfig options, e.g. ESP32S2.
func (t Target) CfgPrefix() string {
	return strings.ReplaceAll(t.Name, "-", "")
}

type entry struct {
	id, name, trm, datasheet string
}

// trm and datasheet hold the file stem; the language suffix is appended.
var table = []entry{
	{"esp8266", "ESP8266", "esp8266-technical_reference", "0a-esp8266ex_datasheet"},
	{"esp32", "ESP32", "esp32_technical_reference_manual", "esp32_datasheet"},
	{"esp32s2", "ESP32-S2", "esp32-s2_technical_reference_manual", "esp32-s2_datasheet"},
	{"esp32s3", "ESP32-S3", "esp32-s3_technical_reference_manual", "esp32-s3_datasheet"},
	{"esp32c3", "ESP32-C3", "esp32-c3_technical_reference_manual", "esp32-c3_datasheet"},
	{"esp32c2", "ESP32-C2", "esp8684_technical_reference_manual", "esp8684_datasheet"},
	{"esp32h2", "ESP32-H2", "esp32-h2_technical_reference_manual", "esp32-h2_datasheet"},
	{"esp32c5", "ESP32-C5", "esp32-c5_technical_reference_manual", "esp32-c5_datasheet"},
	{"esp32c6", "ESP32-C6", "esp32-c6_technical_reference_manual", "esp32-c6_datasheet"},
	{"esp32c61", "ESP32-C61", "esp32-c61_technical_reference_manual", "esp32-c61_datasheet"},
	{"esp32p4", "ESP32-P4", "esp32-p4_technical_reference_manual", "esp32-p4_datasheet"},
}

var toolchainPrefixes = map[string]string{
	"esp8266": "xtensa-lx106-elf",
	"esp32":   "xtensa-esp32-elf",
	"esp32s2": "xtensa-esp32s2-elf",
	"esp32s3": "xtensa-esp32s3-elf",
}

// IDs returns the identifiers of all known targets in table order.
func IDs() []string {
	ids := make([]string, 0, len(table))
	for _, e := range table {
		ids = append(ids, e.id)
	}
	return ids
}

// Known reports whether id names a supported target.
func Known(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Lookup returns the target description for id.
func Lookup(id string) (Target, bool) {
	i := slices.IndexFunc(table, func(e entry) bool { return e.id == id })
	if i < 0 {
		return Target{}, false
	}
	e := table[i]
	return Target{
		ID:              e.id,
		Name:            e.name,
		ToolchainPrefix: ToolchainPrefix(e.id),
		TRMEnURL:        docsBaseURL + e.trm + "_en.pdf",
		TRMCnURL:        docsBaseURL + e.trm + "_cn.pdf",
		DatasheetEnURL:  docsBaseURL + e.datasheet + "_en.pdf",
		DatasheetCnURL:  docsBaseURL + e.datasheet + "_cn.pdf",
	}, true
}

// ToolchainPrefix returns the compiler prefix for id.
func ToolchainPrefix(id string) string {
	if p, ok := toolchainPrefixes[id]; ok {
		return p
	}
	return DefaultToolchainPrefix
}

// SplitList flattens repeatable, comma separated flag values ("esp32,esp32s2")
// into a list, dropping empty items.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
