package message

import (
	"slices"
	"strings"
)

type Badge struct {
	Name   string
	Values []string
}

// Badges keeps tag groups in the order they appeared on the wire.
type Badges []Badge

// ParseBadges scans a tag block of the form "name1=v1,v2;name2=v3". A leading '@' is ignored.
// Names and values are taken verbatim, without trimming.
func ParseBadges(raw string) Badges {
	raw = strings.TrimPrefix(raw, "@")
	if raw == "" {
		return nil
	}

	var (
		badges  Badges
		name    strings.Builder
		value   strings.Builder
		nameSet bool
		values  []string
	)

	flushGroup := func() {
		badges = badges.add(name.String(), values...)
		name.Reset()
		values = nil
		nameSet = false
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if !nameSet {
			if ch == '=' {
				nameSet = true
				continue
			}
			if ch == ';' {
				// valueless tag
				if name.Len() > 0 {
					flushGroup()
				}
				continue
			}
			name.WriteByte(ch)
			continue
		}

		switch ch {
		case ',':
			values = append(values, value.String())
			value.Reset()
		case ';':
			values = append(values, value.String())
			value.Reset()
			flushGroup()
		default:
			value.WriteByte(ch)
		}
	}

	if nameSet {
		values = append(values, value.String())
		flushGroup()
	} else if name.Len() > 0 {
		flushGroup()
	}

	return badges
}

func (b Badges) Get(name string) ([]string, bool) {
	for _, badge := range b {
		if badge.Name == name {
			return badge.Values, true
		}
	}
	return nil, false
}

func (b Badges) First(name string) (string, bool) {
	values, ok := b.Get(name)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (b Badges) add(name string, values ...string) Badges {
	for i := range b {
		if b[i].Name == name {
			b[i].Values = append(b[i].Values, values...)
			return b
		}
	}
	return append(b, Badge{Name: name, Values: slices.Clone(values)})
}

func (b Badges) clone() Badges {
	if b == nil {
		return nil
	}
	out := make(Badges, len(b))
	for i, badge := range b {
		out[i] = Badge{Name: badge.Name, Values: slices.Clone(badge.Values)}
	}
	return out
}

func (b Badges) equal(other Badges) bool {
	return slices.EqualFunc(b, other, func(x, y Badge) bool {
		return x.Name == y.Name && slices.Equal(x.Values, y.Values)
	})
}
