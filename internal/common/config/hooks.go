package config

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks replaces viper's default decode hooks, so the defaults are composed back in.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		LocationDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)),
}

// LocationDecodeHook decodes IANA time zone names, e.g. "America/Sao_Paulo", into a *time.Location.
// An empty string decodes to UTC.
func LocationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t != reflect.TypeOf(&time.Location{}) {
			return data, nil
		}
		name := data.(string)
		if name == "" {
			return time.UTC, nil
		}
		return time.LoadLocation(name)
	}
}
