package tool

import (
	"fmt"
	"reflect"

	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	"github.com/quayside/gangway/pkg/reflectx"
	"github.com/quayside/gangway/pkg/stdx"
	"github.com/quayside/gangway/types"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes one callable function: its advertised name and
// description, the positional-to-named parameter mapping, and the Go
// function to invoke.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema resolves the advertised function name and builds the
// JSON Schema for its parameters.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return functionDefinitionJSON(&functionReflector, td)
}

func functionDefinitionJSON(reflector *jsonschema.Reflector, f Definition) (string, *jsonschema.Schema) {
	name := f.Name
	if name == "" {
		name = reflectx.FunctionName(f.Function)
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	typ := reflect.TypeOf(f.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return name, schema
	}

	numIn := typ.NumIn()
	startIdx := 0
	// methods carry their receiver as the first input
	if numIn > 0 && typ.In(0).Kind() == reflect.Struct && !reflectx.IsRefinedType[types.ContextVars](typ.In(0)) {
		startIdx = 1
	}

	var required []string
	for i := startIdx; i < numIn; i++ {
		paramType := typ.In(i)
		// context variables are injected by the invocation loop, not the model
		if reflectx.IsRefinedType[types.ContextVars](paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", i-startIdx)
		if f.Parameters != nil {
			if p, ok := f.Parameters[paramName]; ok {
				paramName = p
			}
		}

		propSchema := reflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		required = append(required, paramName)
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

// Option configures a Definition during construction.
type Option = opts.Option[Definition]

// Must is New with panic-on-error semantics, for package-level tool vars.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New builds a Definition from a function value and options. The function
// name is derived via reflection when no Name option is supplied.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name overrides the advertised function name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the advertised function description.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the function's positional parameters in order; the
// schema and argument decoding use these names instead of param0..paramN.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
