// Package seed holds the built-in currency set. Built-ins are immutable from
// the user's point of view; they are re-created after a destructive restore.
package seed

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"debtbook/internal/models"
	"debtbook/internal/uuid"
)

//go:embed currencies.yaml
var currenciesYAML []byte

type currencyFile struct {
	Currencies []struct {
		Code   string  `yaml:"code"`
		Name   string  `yaml:"name"`
		Symbol string  `yaml:"symbol"`
		Rate   float64 `yaml:"rate"`
	} `yaml:"currencies"`
}

var (
	loadOnce sync.Once
	loaded   []models.Currency
	loadErr  error
)

// Currencies returns a fresh copy of the built-in currency set. Each call
// returns new IDs; callers that need stable IDs should persist the result.
func Currencies() ([]models.Currency, error) {
	loadOnce.Do(func() {
		var f currencyFile
		if err := yaml.Unmarshal(currenciesYAML, &f); err != nil {
			loadErr = fmt.Errorf("parsing built-in currency set: %w", err)
			return
		}
		for _, c := range f.Currencies {
			if !models.ValidCurrencyCode(c.Code) {
				loadErr = fmt.Errorf("built-in currency %q has a malformed code", c.Code)
				return
			}
			if !models.ValidRate(c.Rate) {
				loadErr = fmt.Errorf("built-in currency %q has an invalid rate %v", c.Code, c.Rate)
				return
			}
			loaded = append(loaded, models.Currency{
				Code:     c.Code,
				Name:     c.Name,
				Symbol:   c.Symbol,
				Rate:     c.Rate,
				IsCustom: false,
			})
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}

	out := make([]models.Currency, len(loaded))
	copy(out, loaded)
	for i := range out {
		out[i].ID = uuid.New()
	}
	return out, nil
}

// MustCurrencies is Currencies but panics on error. The embedded file is part
// of the binary, so a failure here is a build defect, not a runtime condition.
func MustCurrencies() []models.Currency {
	cs, err := Currencies()
	if err != nil {
		panic(err)
	}
	return cs
}

// Base returns the built-in base currency definition.
func Base() (models.Currency, error) {
	cs, err := Currencies()
	if err != nil {
		return models.Currency{}, err
	}
	for _, c := range cs {
		if c.Code == models.BaseCurrencyCode {
			return c, nil
		}
	}
	return models.Currency{}, fmt.Errorf("base currency %s missing from built-in set", models.BaseCurrencyCode)
}
