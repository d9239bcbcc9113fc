package media

import (
	"bytes"
	"sort"

	"photofind/internal/logging"
)

// Candidate is a half-open byte range [Start, End) believed to hold a
// complete embedded JPEG inside a RAW container.
type Candidate struct {
	Start int
	End   int
}

// Size returns the candidate's length in bytes.
func (c Candidate) Size() int {
	return c.End - c.Start
}

// Candidate floors. RAW containers hold several previews; the tiny ones are
// icon-sized and not worth decoding. NEF previews run smaller than most.
const (
	genericMinSize = 50_000
	rafMinSize     = 10_000
	nefMinSize     = 3_000
)

var rafMagic = []byte("FUJIFILMCCD-RAW ")

// rafScanOffset skips the RAF header block before hunting for previews.
const rafScanOffset = 100

// FindEmbedded locates embedded JPEG candidates in a RAW container,
// choosing the scan strategy by extension. Vendor-specific scans fall back
// to the generic scan when they come up empty. Results are sorted largest
// first so callers try the best preview before the icons.
func FindEmbedded(data []byte, ext string) []Candidate {
	switch ext {
	case ".nef":
		if candidates := scanNEF(data); len(candidates) > 0 {
			return candidates
		}
		logging.Debug("NEF scan found no candidates, falling back to generic scan")
		return scanGeneric(data)
	case ".raf":
		if candidates := scanRAF(data); len(candidates) > 0 {
			return candidates
		}
		logging.Debug("RAF scan found no candidates, falling back to generic scan")
		return scanGeneric(data)
	default:
		return scanGeneric(data)
	}
}

// scanGeneric finds every FFD8..FFD9 span above the generic size floor.
// It does not parse segment structure, so entropy-coded data containing a
// literal FFD9 truncates a candidate; the decode step weeds those out.
func scanGeneric(data []byte) []Candidate {
	var candidates []Candidate

	i := 0
	for i < len(data)-1 {
		if data[i] != 0xFF || data[i+1] != 0xD8 {
			i++
			continue
		}

		start := i
		end := i + 2
		foundEnd := false
		for end < len(data)-1 {
			if data[end] == 0xFF && data[end+1] == 0xD9 {
				end += 2
				foundEnd = true
				break
			}
			end++
		}

		if !foundEnd {
			i = start + 2
			continue
		}

		if size := end - start; size > genericMinSize {
			candidates = append(candidates, Candidate{Start: start, End: end})
			logging.Debug("Found JPEG candidate: %d bytes at offset %d", size, start)
		}
		i = end
	}

	sortBySizeDesc(candidates)
	return candidates
}

// scanRAF finds preview JPEGs in a Fujifilm RAF container. Requires the RAF
// magic; returns nil otherwise so the caller can fall back. APPn segments
// after SOI are skipped by their declared length, which stops an APPn
// payload from faking an early EOI.
func scanRAF(data []byte) []Candidate {
	if len(data) <= len(rafMagic) || !bytes.Equal(data[:len(rafMagic)], rafMagic) {
		return nil
	}
	logging.Debug("Confirmed RAF container")

	var candidates []Candidate

	i := rafScanOffset
	for i < len(data)-1 {
		if data[i] != 0xFF || data[i+1] != 0xD8 {
			i++
			continue
		}

		start := i
		end := i + 2
		foundEnd := false
		for end < len(data)-1 {
			if data[end] == 0xFF {
				if data[end+1] == 0xD9 {
					end += 2
					foundEnd = true
					break
				}
				if data[end+1] >= 0xE0 && data[end+1] <= 0xEF && end+3 < len(data) {
					segLen := int(data[end+2])<<8 | int(data[end+3])
					end += 2 + segLen
					continue
				}
			}
			end++
		}

		if foundEnd {
			if size := end - start; size > rafMinSize {
				candidates = append(candidates, Candidate{Start: start, End: end})
				logging.Debug("Found RAF JPEG candidate: %d bytes at offset %d", size, start)
			}
			i = end
		} else {
			i = start + 2
		}
	}

	sortBySizeDesc(candidates)
	return candidates
}

// scanNEF walks full JPEG segment structure to find previews in a Nikon NEF.
// Unlike the generic scan it survives FFD9 bytes inside APP segments and
// entropy-coded data, at the cost of tracking markers properly.
func scanNEF(data []byte) []Candidate {
	var candidates []Candidate

	i := 0
	for i < len(data)-1 {
		if data[i] != 0xFF || data[i+1] != 0xD8 {
			i++
			continue
		}

		start := i
		end := i + 2
		foundEnd := false
		inScanData := false

		for end < len(data)-1 {
			if data[end] != 0xFF {
				end++
				continue
			}

			marker := data[end+1]
			switch {
			case marker == 0xD9:
				// EOI closes the candidate
				end += 2
				foundEnd = true
			case marker == 0xD8:
				// nested SOI: this candidate is bogus, resume after it
				foundEnd = false
			case marker == 0xDA:
				// SOS: skip the scan header, then we are in entropy-coded data
				end += 2
				if end+1 < len(data) {
					scanLen := int(data[end])<<8 | int(data[end+1])
					end += scanLen
					inScanData = true
				}
			case marker == 0x00:
				// byte-stuffed FF inside scan data
				if inScanData {
					end += 2
				} else {
					end++
				}
			case marker >= 0xD0 && marker <= 0xD7:
				// restart markers carry no length
				end += 2
			case marker >= 0xE0 && marker <= 0xEF,
				marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xCC,
				marker == 0xC4, marker == 0xDB:
				// APPn / SOF / DHT / DQT: skip by declared length
				end += 2
				if end+1 < len(data) {
					segLen := int(data[end])<<8 | int(data[end+1])
					end += segLen
				}
			default:
				// other markers: trust the length field when sane
				end += 2
				if end+1 < len(data) {
					segLen := int(data[end])<<8 | int(data[end+1])
					if segLen >= 2 {
						end += segLen
					} else {
						end++
					}
				}
			}

			if foundEnd || marker == 0xD8 {
				break
			}
		}

		if foundEnd {
			if size := end - start; size > nefMinSize {
				candidates = append(candidates, Candidate{Start: start, End: end})
				logging.Debug("Found NEF JPEG candidate: %d bytes at offset %d", size, start)
			}
			i = end
		} else {
			i = start + 2
		}
	}

	sortBySizeDesc(candidates)
	return candidates
}

func sortBySizeDesc(candidates []Candidate) {
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Size() > candidates[b].Size()
	})
}
