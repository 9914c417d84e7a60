package bytecode

import (
	"fmt"
	"sort"
)

// DebugInfo associates the instructions starting at Index with a source
// range. A clear entry means the following instructions have no position.
type DebugInfo struct {
	Index       int
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	FileName    string
	IsClear     bool
}

func (d DebugInfo) String() string {
	if d.IsClear {
		return fmt.Sprintf("%d: clear (%s)", d.Index, d.FileName)
	}
	return fmt.Sprintf("%d: %s:%d:%d-%d:%d", d.Index, d.FileName, d.StartLine, d.StartColumn, d.EndLine, d.EndColumn)
}

// Location returns a compact file:line:column string.
func (d DebugInfo) Location() string {
	if d.IsClear {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", d.FileName, d.StartLine, d.StartColumn)
}

// DebugInfoAt returns the debug entry in effect at instruction ip: the last
// entry whose index is at or before ip. It reports false before the first
// entry and when the entry in effect is a clear marker.
func (c *Code) DebugInfoAt(ip int) (DebugInfo, bool) {
	return lookupDebugInfo(c.debugInfos, ip)
}

func lookupDebugInfo(infos []DebugInfo, ip int) (DebugInfo, bool) {
	// First entry strictly after ip; the one before it is the floor.
	i := sort.Search(len(infos), func(i int) bool {
		return infos[i].Index > ip
	})
	if i == 0 {
		return DebugInfo{}, false
	}
	d := infos[i-1]
	if d.IsClear {
		return DebugInfo{}, false
	}
	return d, true
}
