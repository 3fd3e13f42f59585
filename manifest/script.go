package manifest

import "strings"

// Script reports which Chinese script classes a string contains. Used to
// decide whether a field already looks translated: Han alone may be a
// traditional-script or Japanese string, Simplified means at least one
// character whose form exists only in simplified Chinese.
type Script struct {
	Han        bool
	Simplified bool
}

// simplifiedOnly holds common ideographs whose simplified form differs from
// the traditional one, so their presence marks a simplified-Chinese string.
const simplifiedOnly = "们这说对让还时书东车门问长语习马鸟龙岁爱见贝页风飞电汉简体设备战专业号区别动发会经济历关变证"

// DetectScript scans s for CJK unified ideographs (U+4E00..U+9FFF) and for
// the simplified-only subset. The two predicates are independent: Simplified
// implies Han, never the reverse.
func DetectScript(s string) Script {
	var sc Script
	for _, r := range s {
		if r < 0x4E00 || r > 0x9FFF {
			continue
		}
		sc.Han = true
		if !sc.Simplified && strings.ContainsRune(simplifiedOnly, r) {
			sc.Simplified = true
		}
	}
	return sc
}
