package promptvault

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ──────────────────────────────────────────────
// Scripted transform — sandboxed Lua snippet
// ──────────────────────────────────────────────

// Parameters:
//
//	"script": Lua source; reads the global `content`, returns the new text
//
// Only the base, string, and table libraries are opened — no io, no os,
// no networking. A script error or a non-string/empty return skips the
// technique like any other degenerate transform.
func applyScripted(text string, tech *Technique) (string, string) {
	script := paramString(tech.Parameters, "script", "")
	if script == "" {
		return text, "missing script parameter"
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	lua.OpenBase(L)
	lua.OpenString(L)
	lua.OpenTable(L)

	L.SetGlobal("content", lua.LString(text))
	if err := L.DoString(script); err != nil {
		return text, "script error: " + err.Error()
	}

	ret := L.Get(-1)
	s, ok := ret.(lua.LString)
	if !ok {
		return text, "script did not return a string"
	}
	out := strings.TrimSpace(string(s))
	if out == "" {
		return text, "script returned empty output"
	}
	return out, ""
}
