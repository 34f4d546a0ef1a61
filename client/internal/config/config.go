package config

import (
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
)

const (
	fileName = ".imagevault.yml"
)

type (
	Config struct {
		Host      string `yaml:"host"`
		AccessKey string `yaml:"accessKey"`
	}
)

func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return fileName
	}
	return filepath.Join(home, fileName)
}

// Parse reads ~/.imagevault.yml. A missing file is not an error: commands fall
// back to the local default server.
func Parse() (Config, error) {
	c := Config{Host: "http://localhost:3646"}
	fi, err := os.Open(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, err
	}
	defer fi.Close()

	value, err := io.ReadAll(fi)
	if err != nil {
		return c, err
	}

	if err = yaml.Unmarshal(value, &c); err != nil {
		return c, err
	}

	return c, nil
}

func Write(c Config) error {
	value, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), value, 0600)
}
