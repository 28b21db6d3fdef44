package hyperion

var pythonBuiltins = map[string]bool{}

func init() {
	for _, name := range []string{
		"abs", "all", "any", "ascii", "bin", "bool", "breakpoint", "bytearray",
		"bytes", "callable", "chr", "classmethod", "compile", "complex", "delattr",
		"dict", "dir", "divmod", "enumerate", "eval", "exec", "exit", "filter",
		"float", "format", "frozenset", "getattr", "globals", "hasattr", "hash",
		"help", "hex", "id", "input", "int", "isinstance", "issubclass", "iter",
		"len", "list", "locals", "map", "max", "memoryview", "min", "next",
		"object", "oct", "open", "ord", "pow", "print", "property", "quit",
		"range", "repr", "reversed", "round", "set", "setattr", "slice", "sorted",
		"staticmethod", "str", "sum", "super", "tuple", "type", "vars", "zip",
		"__import__", "__build_class__",
		"Exception", "BaseException", "KeyboardInterrupt", "SystemExit",
		"ValueError", "TypeError", "KeyError", "IndexError", "RuntimeError",
		"True", "False", "None",
	} {
		pythonBuiltins[name] = true
	}
}

func isBuiltin(name string) bool {
	return pythonBuiltins[name]
}
