package invoke

import (
	"encoding"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/quayside/gangway/pkg/reflectx"
	"github.com/quayside/gangway/pkg/slogx"
	"github.com/quayside/gangway/types"
	"github.com/tidwall/gjson"
)

func buildArgList(arguments string, parameters map[string]string) []reflect.Value {
	args := gjson.Parse(arguments)

	// Without a parameter mapping the schema advertises param0..paramN, so
	// that is what the model sends back.
	if len(parameters) == 0 {
		toolArgs := make([]reflect.Value, 0) //nolint: prealloc
		for i := 0; ; i++ {
			val := args.Get("param" + strconv.Itoa(i))
			if !val.Exists() {
				break
			}
			toolArgs = append(toolArgs, reflect.ValueOf(val.Value()))
		}
		return toolArgs
	}

	// build an ordered list of arguments
	targs := make([]string, len(parameters))
	for k, v := range parameters {
		ns := strings.TrimPrefix(k, "param")
		i, _ := strconv.Atoi(ns)
		if i < 0 || i >= len(targs) {
			continue
		}
		targs[i] = v
	}

	toolArgs := make([]reflect.Value, 0) //nolint: prealloc
	for _, arg := range targs {
		if arg == "" {
			continue
		}

		val := args.Get(arg)
		if !val.Exists() {
			continue
		}

		toolArgs = append(toolArgs, reflect.ValueOf(val.Value()))
	}
	return toolArgs
}

type callResult struct {
	Value            string
	ContextVariables types.ContextVars
}

func callFunction(fn any, args []reflect.Value, contextVars types.ContextVars) (res callResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()

	val := reflect.ValueOf(fn)
	vtpe := val.Type()

	numIn := vtpe.NumIn()
	callArgs := make([]reflect.Value, numIn)

	for fi := 0; fi < numIn; fi++ {
		paramType := vtpe.In(fi)
		switch {
		case reflectx.IsRefinedType[types.ContextVars](paramType):
			callArgs[fi] = reflect.ValueOf(contextVars)
		case fi < len(args):
			vv := args[fi]
			if vv.Type().ConvertibleTo(paramType) {
				callArgs[fi] = vv.Convert(paramType)
			} else {
				callArgs[fi] = reflect.Zero(paramType)
			}
		default:
			callArgs[fi] = reflect.Zero(paramType)
		}
	}

	results := val.Call(callArgs)
	if len(results) == 0 {
		return callResult{}, nil
	}

	// a trailing error return aborts the call
	if last := results[len(results)-1]; last.IsValid() {
		if err, ok := last.Interface().(error); ok && err != nil {
			return callResult{}, err
		}
	}

	rv := results[0]
	if !rv.IsValid() {
		return callResult{}, nil
	}

	switch vtpe := rv.Interface().(type) {
	case nil:
		return callResult{}, nil
	case error:
		return callResult{}, vtpe
	case types.ContextVars:
		vars := maps.Clone(vtpe)
		b, err := json.Marshal(vars)
		if err != nil {
			return callResult{}, err
		}
		return callResult{Value: string(b), ContextVariables: vars}, nil
	case string:
		return callResult{Value: vtpe}, nil
	case time.Time:
		return callResult{Value: vtpe.Format(time.RFC3339)}, nil
	case int, int8, int16, int32, int64:
		val := reflect.ValueOf(vtpe)
		return callResult{Value: strconv.FormatInt(val.Int(), 10)}, nil
	case uint, uint8, uint16, uint32, uint64:
		val := reflect.ValueOf(vtpe)
		return callResult{Value: strconv.FormatUint(val.Uint(), 10)}, nil
	case float32, float64:
		val := reflect.ValueOf(vtpe)
		return callResult{Value: strconv.FormatFloat(val.Float(), 'f', -1, 64)}, nil
	case encoding.TextMarshaler:
		b, err := vtpe.MarshalText()
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return callResult{}, err
		}
		return callResult{Value: string(b)}, nil
	case fmt.Stringer:
		return callResult{Value: vtpe.String()}, nil
	default:
		b, err := json.Marshal(vtpe)
		if err != nil {
			slog.Error("Error marshalling function return", slogx.Error(err))
			return callResult{}, err
		}
		return callResult{Value: string(b)}, nil
	}
}
