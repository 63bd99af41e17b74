package camera

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Table holds the CHDK vendor constants: the extension opcode, the
// sub-command numbers carried in parameter 1, and the flag bits used by
// script status and live view requests. Firmware variants that renumber
// any of these can supply their own table with WithTable.
type Table struct {
	// Operation is the vendor PTP operation code all CHDK calls use
	Operation uint16 `toml:"operation"`

	Commands Commands     `toml:"commands"`
	Script   ScriptFlags  `toml:"script"`
	LiveView LiveViewBits `toml:"liveview"`
}

// Commands lists the CHDK sub-command numbers.
type Commands struct {
	Version        uint32 `toml:"version"`
	GetMemory      uint32 `toml:"get_memory"`
	SetMemory      uint32 `toml:"set_memory"`
	CallFunction   uint32 `toml:"call_function"`
	TempData       uint32 `toml:"temp_data"`
	UploadFile     uint32 `toml:"upload_file"`
	DownloadFile   uint32 `toml:"download_file"`
	ExecuteScript  uint32 `toml:"execute_script"`
	ScriptStatus   uint32 `toml:"script_status"`
	ScriptSupport  uint32 `toml:"script_support"`
	ReadScriptMsg  uint32 `toml:"read_script_msg"`
	WriteScriptMsg uint32 `toml:"write_script_msg"`
	GetDisplayData uint32 `toml:"get_display_data"`
}

// ScriptFlags holds script language ids and status bits.
type ScriptFlags struct {
	// LangLua selects Lua in ExecuteScript parameter 2
	LangLua uint32 `toml:"lang_lua"`

	// StatusRun is set in the script status while a script runs
	StatusRun uint32 `toml:"status_run"`

	// StatusMsg is set in the script status while messages are queued
	StatusMsg uint32 `toml:"status_msg"`

	// SupportLua is set in the script support mask when Lua is available
	SupportLua uint32 `toml:"support_lua"`

	// TempDownload marks TempData as a download file name
	TempDownload uint32 `toml:"temp_download"`
}

// LiveViewBits selects the parts of a live view frame to transfer.
type LiveViewBits struct {
	Viewport uint32 `toml:"viewport"`
	Bitmap   uint32 `toml:"bitmap"`
	Palette  uint32 `toml:"palette"`
}

// DefaultTable returns the constants of the stock CHDK PTP extension.
func DefaultTable() Table {
	return Table{
		Operation: 0x9999,
		Commands: Commands{
			Version:        0,
			GetMemory:      1,
			SetMemory:      2,
			CallFunction:   3,
			TempData:       4,
			UploadFile:     5,
			DownloadFile:   6,
			ExecuteScript:  7,
			ScriptStatus:   8,
			ScriptSupport:  9,
			ReadScriptMsg:  10,
			WriteScriptMsg: 11,
			GetDisplayData: 12,
		},
		Script: ScriptFlags{
			LangLua:      0,
			StatusRun:    0x1,
			StatusMsg:    0x2,
			SupportLua:   0x1,
			TempDownload: 0x1,
		},
		LiveView: LiveViewBits{
			Viewport: 0x01,
			Bitmap:   0x04,
			Palette:  0x08,
		},
	}
}

// LoadTable reads a TOML file over DefaultTable. Keys absent from the
// file keep their default values; unknown keys are an error.
//
// Example file:
//
//	operation = 0x9999
//
//	[commands]
//	download_file = 6
//
//	[liveview]
//	palette = 0x08
func LoadTable(path string) (Table, error) {
	t := DefaultTable()
	meta, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Table{}, fmt.Errorf("load table: %w", err)
	}
	return finishTable(t, meta)
}

// ParseTable decodes TOML text over DefaultTable, like LoadTable.
func ParseTable(data string) (Table, error) {
	t := DefaultTable()
	meta, err := toml.Decode(data, &t)
	if err != nil {
		return Table{}, fmt.Errorf("parse table: %w", err)
	}
	return finishTable(t, meta)
}

func finishTable(t Table, meta toml.MetaData) (Table, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Table{}, fmt.Errorf("table: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := ValidateTable(t); err != nil {
		return Table{}, err
	}
	return t, nil
}

// ValidateTable checks that the opcode is set, sub-commands are distinct
// and flag bits are non-zero.
func ValidateTable(t Table) error {
	if t.Operation == 0 {
		return fmt.Errorf("table: operation code cannot be 0")
	}

	c := t.Commands
	named := []struct {
		name  string
		value uint32
	}{
		{"version", c.Version},
		{"get_memory", c.GetMemory},
		{"set_memory", c.SetMemory},
		{"call_function", c.CallFunction},
		{"temp_data", c.TempData},
		{"upload_file", c.UploadFile},
		{"download_file", c.DownloadFile},
		{"execute_script", c.ExecuteScript},
		{"script_status", c.ScriptStatus},
		{"script_support", c.ScriptSupport},
		{"read_script_msg", c.ReadScriptMsg},
		{"write_script_msg", c.WriteScriptMsg},
		{"get_display_data", c.GetDisplayData},
	}
	seen := make(map[uint32]string, len(named))
	for _, n := range named {
		if prev, ok := seen[n.value]; ok {
			return fmt.Errorf("table: commands %s and %s share value %d", prev, n.name, n.value)
		}
		seen[n.value] = n.name
	}

	flags := []struct {
		name  string
		value uint32
	}{
		{"script.status_run", t.Script.StatusRun},
		{"script.status_msg", t.Script.StatusMsg},
		{"script.support_lua", t.Script.SupportLua},
		{"script.temp_download", t.Script.TempDownload},
		{"liveview.viewport", t.LiveView.Viewport},
		{"liveview.bitmap", t.LiveView.Bitmap},
		{"liveview.palette", t.LiveView.Palette},
	}
	for _, f := range flags {
		if f.value == 0 {
			return fmt.Errorf("table: %s cannot be 0", f.name)
		}
	}
	if t.Script.StatusRun&t.Script.StatusMsg != 0 {
		return fmt.Errorf("table: script status bits overlap")
	}

	return nil
}
