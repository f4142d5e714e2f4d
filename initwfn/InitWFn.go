// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be JSON serialized into configuraiton files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
)

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// validator is implemented by configs whose parameters can be invalid
type validator interface {
	validate() error
}

func validate(c Config) error {
	if v, ok := c.(validator); ok {
		return v.validate()
	}
	return nil
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	if err := validate(c); err != nil {
		return nil, fmt.Errorf("newInitWFn: %w", err)
	}
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
			string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
			string(HeU):      reflect.TypeOf(HeUConfig{}),
			string(HeN):      reflect.TypeOf(HeNConfig{}),
			string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
			string(Ones):     reflect.TypeOf(OnesConfig{}),
			string(Constant): reflect.TypeOf(ConstantConfig{}),
			string(Uniform):  reflect.TypeOf(UniformConfig{}),
			string(Gaussian): reflect.TypeOf(GaussianConfig{}),
		})
	if err != nil {
		return err
	}
	if err := validate(config); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

	return nil
}

// defaults holds the initializers selectable by name alone
var defaults = map[string]func() (*InitWFn, error){
	strings.ToLower(string(GlorotU)): func() (*InitWFn, error) { return NewGlorotU(1.0) },
	strings.ToLower(string(GlorotN)): func() (*InitWFn, error) { return NewGlorotN(1.0) },
	strings.ToLower(string(HeU)):     func() (*InitWFn, error) { return NewHeU(1.0) },
	strings.ToLower(string(HeN)):     func() (*InitWFn, error) { return NewHeN(1.0) },
	strings.ToLower(string(Zeroes)):  NewZeroes,
	strings.ToLower(string(Ones)):    NewOnes,
}

// Parse returns the initializer described by s. The description is
// either a case insensitive name of an initializer with default
// parameters (glorotu, glorotn, heu, hen, zeroes, ones), or the JSON
// encoding of an InitWFn such as
//
//	{"Type": "Uniform", "Config": {"Low": -0.1, "High": 0.1}}
func Parse(s string) (*InitWFn, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		init := &InitWFn{}
		if err := json.Unmarshal([]byte(s), init); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		return init, nil
	}

	create, ok := defaults[strings.ToLower(s)]
	if !ok {
		return nil, fmt.Errorf("parse: unknown initializer %q, want one "+
			"of glorotu, glorotn, heu, hen, zeroes, ones or a JSON config", s)
	}
	return create()
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalconfig: missing %v field",
			typeJsonField)
	}
	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalconfig: unknown type %q",
			typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}
