// Package jsapi provides the JS-facing library applications use:
// require("bitmovin") returns the Player, PlayerView and configuration
// classes, which answer every native callback request addressed to them.
package jsapi

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
)

// ModuleName is the require name of the library.
const ModuleName = "bitmovin"

//go:embed js/bitmovin.js
var source string

var compile = sync.OnceValues(func() (*goja.Program, error) {
	return goja.Compile("bitmovin.js", "(function (exports, require, module) {\n"+source+"\n})", true)
})

// Register makes the library available to scripts run by rt. The native
// modules it requires must be registered too, before it is first required.
func Register(rt *jsbridge.Runtime) error {
	prg, err := compile()
	if err != nil {
		return fmt.Errorf("jsapi: %w", err)
	}
	rt.Registry().RegisterNativeModule(ModuleName, func(vm *goja.Runtime, module *goja.Object) {
		wrapper, err := vm.RunProgram(prg)
		if err != nil {
			panic(err)
		}
		fn, ok := goja.AssertFunction(wrapper)
		if !ok {
			panic(vm.NewTypeError("jsapi: library did not evaluate to a function"))
		}
		if _, err := fn(goja.Undefined(), module.Get("exports"), vm.Get("require"), module); err != nil {
			panic(err)
		}
	})
	return nil
}

// Source returns the library source.
func Source() string { return source }
