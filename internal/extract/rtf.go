package extract

import (
	"errors"
	"strconv"
	"strings"
)

var errNotRTF = errors.New("extract rtf: missing {\\rtf header")

// rtfDestinations are groups whose content is metadata rather than document text.
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true, "pict": true,
	"listtable": true, "listoverridetable": true, "revtbl": true, "rsidtbl": true,
	"generator": true, "filetbl": true, "object": true, "datastore": true, "themedata": true,
	"colorschememapping": true, "latentstyles": true, "xmlnsinfo": true,
	"header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
}

type rtfGroup struct {
	skip  bool
	fresh bool // no token seen yet in this group
	uc    int  // fallback characters to drop after \u
}

// extractRTF returns the visible text of an RTF document. Destination groups
// (font and color tables, stylesheets, document info, pictures and any {\* ...} group)
// are dropped along with every control word.
func extractRTF(content []byte) (string, error) {
	src := string(content)
	if !strings.HasPrefix(strings.TrimLeft(src, " \t\r\n"), `{\rtf`) {
		return "", errNotRTF
	}

	var out strings.Builder
	stack := []rtfGroup{{uc: 1}}
	pendingSkip := 0
	cur := func() *rtfGroup { return &stack[len(stack)-1] }
	emit := func(s string) {
		if pendingSkip > 0 {
			pendingSkip--
			return
		}
		if !cur().skip {
			out.WriteString(s)
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{':
			top := *cur()
			stack = append(stack, rtfGroup{skip: top.skip, fresh: true, uc: top.uc})
			pendingSkip = 0
			continue
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			pendingSkip = 0
			continue
		case '\r', '\n':
			continue
		case '\\':
		default:
			cur().fresh = false
			emit(string(c))
			continue
		}

		// control word or symbol
		if i+1 >= len(src) {
			break
		}
		next := src[i+1]
		g := cur()
		fresh := g.fresh
		g.fresh = false

		if !isASCIILetter(next) {
			i++
			switch next {
			case '\\', '{', '}':
				emit(string(next))
			case '*':
				if fresh {
					g.skip = true
				}
			case '\'':
				if i+2 < len(src) {
					if b, err := strconv.ParseUint(src[i+1:i+3], 16, 8); err == nil {
						emit(string(rune(b)))
					}
					i += 2
				}
			case '~':
				emit(" ")
			case '_':
				emit("-")
			case '\r', '\n':
				emit("\n")
			}
			continue
		}

		j := i + 1
		for j < len(src) && isASCIILetter(src[j]) {
			j++
		}
		word := src[i+1 : j]
		k := j
		if k < len(src) && src[k] == '-' {
			k++
		}
		for k < len(src) && src[k] >= '0' && src[k] <= '9' {
			k++
		}
		param, hasParam := 0, k > j
		if hasParam {
			param, _ = strconv.Atoi(src[j:k])
		}
		if k < len(src) && src[k] == ' ' {
			k++
		}
		i = k - 1

		if fresh && rtfDestinations[word] {
			g.skip = true
			continue
		}
		switch word {
		case "par", "line", "sect", "page", "row":
			emit("\n")
		case "tab", "cell":
			emit("\t")
		case "uc":
			if hasParam {
				g.uc = param
			}
		case "u":
			if param < 0 {
				param += 65536
			}
			emit(string(rune(param)))
			pendingSkip = g.uc
		case "bin":
			i += param
		}
	}

	lines := strings.Split(out.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
