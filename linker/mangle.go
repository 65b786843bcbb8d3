package linker

import (
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/exports"
)

const (
	identStart = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ$_"
	identPart  = identStart + "0123456789"
)

// NumberToIdentifier maps n to a unique short identifier: 0..53 are single
// characters, the following ones grow by one character per 64x.
func NumberToIdentifier(n int) string {
	b := []byte{identStart[n%len(identStart)]}
	n /= len(identStart)
	for n > 0 {
		n--
		b = append(b, identPart[n%len(identPart)])
		n /= len(identPart)
	}
	return string(b)
}

// identOffset returns the first number mapping to an identifier of length
// l, and capacity the count of such identifiers.
func identOffset(l int) (offset, capacity int) {
	capacity = len(identStart)
	for i := 1; i < l; i++ {
		offset += capacity
		capacity *= len(identPart)
	}
	return offset, capacity
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '$' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isMinimal reports whether renaming name could not make it shorter.
func isMinimal(name string) bool {
	switch len(name) {
	case 1:
		return isIdentStart(name[0])
	case 2:
		return isIdentStart(name[0]) && isIdentPart(name[1])
	default:
		return false
	}
}

func isReserved(name string) bool {
	return name == "default" || name == "__esModule"
}

// MangleExports assigns used names to the used exports of every module.
// It must run after every runtime's usage pass.
func (r *Resolver) MangleExports() {
	renamed := 0
	for _, m := range r.graph.Modules() {
		renamed += mangleInfo(r.info(m.Identifier()), r.options.Mangle)
	}
	r.stats.Mangled = renamed
	Logger().Debug("exports mangled",
		zap.Stringer("mode", r.options.Mangle),
		zap.Int("renamed", renamed))
}

// mangleInfo names the exports of one module and returns how many were
// renamed. Unused exports get no name. Names that are not known to be
// provided keep their declared name. Kept names are taken first so that
// mangled names never collide with them.
func mangleInfo(info *exports.Info, mode MangleMode) int {
	if mode == MangleOff {
		return 0
	}
	keepAll := info.Other().Usage(nil) == exports.UsageUsed

	taken := make(map[string]struct{})
	var candidates []*exports.ExportInfo
	for _, e := range info.Exports() {
		if e.Usage(nil) == exports.UsageUnused {
			continue
		}
		name := e.Name()
		if keepAll || !e.CanMangle() || e.Provided() != exports.ProvidedYes || isReserved(name) || isMinimal(name) {
			taken[name] = struct{}{}
			e.SetUsedName(name)
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return 0
	}

	switch mode {
	case MangleSize:
		n := 0
		for _, e := range candidates {
			for {
				id := NumberToIdentifier(n)
				n++
				if _, ok := taken[id]; !ok {
					taken[id] = struct{}{}
					e.SetUsedName(id)
					break
				}
			}
		}
	case MangleDeterministic:
		length := 1
		for {
			if _, capacity := identOffset(length); capacity >= len(candidates)+len(taken) {
				break
			}
			length++
		}
		offset, capacity := identOffset(length)
		for _, e := range candidates {
			start := int(xxhash.Sum64String(e.Name()) % uint64(capacity))
			for i := 0; i < capacity; i++ {
				id := NumberToIdentifier(offset + (start+i)%capacity)
				if _, ok := taken[id]; !ok {
					taken[id] = struct{}{}
					e.SetUsedName(id)
					break
				}
			}
		}
	}
	return len(candidates)
}
