package substitution

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTarget(t *testing.T) {
	s, err := ForTarget("esp32s2")
	require.NoError(t, err)

	out, err := s.Substitute("{IDF_TARGET_NAME} uses {IDF_TARGET_TOOLCHAIN_PREFIX}-gcc, see CONFIG_{IDF_TARGET_CFG_PREFIX}_X in {IDF_TARGET_PATH_NAME}")
	require.NoError(t, err)
	assert.Equal(t, "ESP32-S2 uses xtensa-esp32s2-elf-gcc, see CONFIG_ESP32S2_X in esp32s2", out)

	_, err = ForTarget("esp99")
	assert.Error(t, err)
}

func TestSubstitute_LocalDefinitions(t *testing.T) {
	content := "{IDF_TARGET_TX_PIN:default=\"IO3\",esp32=\"IO4\",esp32s2=\"IO5\"}\n" +
		"Connect TX to {IDF_TARGET_TX_PIN}.\n"

	tests := []struct {
		target string
		want   string
	}{
		{"esp32", "\nConnect TX to IO4.\n"},
		{"esp32s2", "\nConnect TX to IO5.\n"},
		{"esp32c3", "\nConnect TX to IO3.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			s, err := ForTarget(tt.target)
			require.NoError(t, err)
			got, err := s.Substitute(content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_MissingDefault(t *testing.T) {
	s := New("esp32")
	_, err := s.Substitute("{IDF_TARGET_PIN:esp32=\"IO4\"}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default value")
}

func TestAddValues(t *testing.T) {
	s := New("esp32")
	s.AddValues(map[string]string{"SOC_UART_NUM": "(3)", "SOC_MAX": "16UL", "SOC_MIN": "2U"})

	got, err := s.Substitute("{IDF_TARGET_SOC_UART_NUM} {IDF_TARGET_SOC_MAX} {IDF_TARGET_SOC_MIN}")
	require.NoError(t, err)
	assert.Equal(t, "3 16 2", got)
}

func TestParseDefines(t *testing.T) {
	header := `#pragma once
#define SOC_UART_NUM (3)
#define SOC_GPIO_PIN_COUNT 40
#define __GNUC__ 12
#define SOC_CAPS_STR "a b"
#define SOC_HAS_FEATURE
  #define SOC_ADC_MAX_BITWIDTH (12UL)
int unrelated;
`
	defines, err := ParseDefines(strings.NewReader(header))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"SOC_UART_NUM":         "(3)",
		"SOC_GPIO_PIN_COUNT":   "40",
		"SOC_CAPS_STR":         "",
		"SOC_HAS_FEATURE":      "",
		"SOC_ADC_MAX_BITWIDTH": "(12UL)",
	}, defines)
}

func TestUnresolved(t *testing.T) {
	assert.Equal(t, []string{"{IDF_TARGET_FOO}", "{IDF_TARGET_BAR}"},
		Unresolved("a {IDF_TARGET_FOO} b {IDF_TARGET_BAR}"))
	assert.Empty(t, Unresolved("clean"))
}

func TestSaveTable(t *testing.T) {
	s, err := ForTarget("esp32")
	require.NoError(t, err)
	s.Add("{IDF_TARGET_EXTRA}", "x")

	var buf bytes.Buffer
	require.NoError(t, s.WriteTable(&buf))
	assert.Contains(t, buf.String(), "{IDF_TARGET_NAME}: ESP32\n")

	path, err := s.SaveTable(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, FileName, filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
	assert.Contains(t, string(data), "{IDF_TARGET_EXTRA}: x\n")
}
