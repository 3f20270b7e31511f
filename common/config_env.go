package common

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into the
// process environment. Missing files are ignored and variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var exists []string
	for _, f := range files {
		if ok, err := FileLoader.Exist(f); err != nil {
			return err
		} else if ok {
			exists = append(exists, f)
		}
	}
	if len(exists) == 0 {
		return nil
	}
	Debugf("load env from:%s", strings.Join(exists, ","))
	return godotenv.Load(exists...)
}

// Getenv returns the first non-empty value among the environment variables keys
func Getenv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// OverrideString sets *dest to the first non-empty environment value among keys
func OverrideString(dest *string, keys ...string) {
	if v := Getenv(keys...); v != "" {
		*dest = v
	}
}

// OverrideInt sets *dest to the first non-empty environment value among keys,
// a value that is not an integer is reported as an error
func OverrideInt(dest *int, keys ...string) error {
	v := Getenv(keys...)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dest = i
	return nil
}
