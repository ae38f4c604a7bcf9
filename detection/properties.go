/*
DESCRIPTION
  properties.go provides Properties, the string property bag attached to jobs,
  media, tracks and locations, with typed lookups.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detection

import (
	"strconv"
	"strings"
)

// Properties is a free-form string property bag.
type Properties map[string]string

// String returns the value of key, or def if it is unset or empty.
func (p Properties) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == "" {
		return def
	}
	return v
}

// Bool returns the value of key parsed as a bool, or def if it is unset.
func (p Properties) Bool(key string, def bool) (bool, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return def, InvalidProperty(key, v, "is not a bool")
}

// Int returns the value of key parsed as an int, or def if it is unset.
func (p Properties) Int(key string, def int) (int, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, InvalidProperty(key, v, "is not an integer")
	}
	return i, nil
}

// Float returns the value of key parsed as a float64, or def if it is unset.
func (p Properties) Float(key string, def float64) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, InvalidProperty(key, v, "is not a number")
	}
	return f, nil
}

// Clone returns a copy of p.
func (p Properties) Clone() Properties {
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

func (p Properties) lookup(key string) (string, bool) {
	v, ok := p[key]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
