package preprocessor

import lua "github.com/yuin/gopher-lua"

func mapToLuaTable(L *lua.LState, m map[string]string) *lua.LTable {
	t := L.NewTable()
	for k, v := range m {
		t.RawSetString(k, lua.LString(v))
	}
	return t
}
