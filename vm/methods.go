package vm

import "strings"

// This file implements the per-type method registry: get(container, name)
// may return a bound method, represented as a native value that closes
// over the receiver via a this channel, keyed by (Kind, name).

type methodFunc func(ctx *Context, this *Value, args []*Value) NativeResult

var listMethods = map[string]methodFunc{
	"len": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newIntValue(int64(len(this.ListElems()))))
	},
	"append": func(ctx *Context, this *Value, args []*Value) NativeResult {
		for _, a := range args {
			if err := containerAppend(this, a); err != nil {
				return NativeThrowResult(err.Error())
			}
		}
		return NativeOKResult(Null)
	},
	"pop": func(ctx *Context, this *Value, args []*Value) NativeResult {
		ld := this.data.(*listData)
		if len(ld.elems) == 0 {
			return NativeThrowResult("pop from empty list")
		}
		last := ld.elems[len(ld.elems)-1]
		ld.elems = ld.elems[:len(ld.elems)-1]
		return NativeOKResult(last)
	},
	"contains": func(ctx *Context, this *Value, args []*Value) NativeResult {
		if len(args) != 1 {
			return NativeThrowResult("contains expects 1 argument")
		}
		ok, err := valueIn(args[0], this)
		if err != nil {
			return NativeThrowResult(err.Error())
		}
		return NativeOKResult(boolValue(ok))
	},
}

var mapMethods = map[string]methodFunc{
	"len": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newIntValue(int64(this.MapLen())))
	},
	"keys": func(ctx *Context, this *Value, args []*Value) NativeResult {
		md := this.data.(*mapData)
		return NativeOKResult(newListValue(append([]*Value(nil), md.keys...)))
	},
	"values": func(ctx *Context, this *Value, args []*Value) NativeResult {
		md := this.data.(*mapData)
		return NativeOKResult(newListValue(append([]*Value(nil), md.vals...)))
	},
	"delete": func(ctx *Context, this *Value, args []*Value) NativeResult {
		if len(args) != 1 {
			return NativeThrowResult("delete expects 1 argument")
		}
		return NativeOKResult(boolValue(mapDelete(this, args[0])))
	},
}

var strMethods = map[string]methodFunc{
	"len": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newIntValue(int64(len([]rune(this.Str())))))
	},
	"upper": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newStrValue(strings.ToUpper(this.Str())))
	},
	"lower": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newStrValue(strings.ToLower(this.Str())))
	},
}

var tupleMethods = map[string]methodFunc{
	"len": func(ctx *Context, this *Value, args []*Value) NativeResult {
		return NativeOKResult(newIntValue(int64(len(this.TupleElems()))))
	},
}

func lookupMethod(c *Value, name string) (methodFunc, bool) {
	var table map[string]methodFunc
	switch c.Kind {
	case KindList:
		table = listMethods
	case KindMap:
		table = mapMethods
	case KindStr:
		table = strMethods
	case KindTuple:
		table = tupleMethods
	default:
		return nil, false
	}
	fn, ok := table[name]
	return fn, ok
}

// bindMethod wraps a methodFunc in a NativeFunc closing over the
// receiver.
func bindMethod(receiver *Value, name string, fn methodFunc) *Value {
	return newNativeValue(name, -1, true, func(ctx *Context, args []*Value) NativeResult {
		ctx.This = receiver
		return fn(ctx, receiver, args)
	})
}
