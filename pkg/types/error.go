package types

// ConstError is a string-typed error so sentinels can be declared as
// constants and compared with `errors.Is`.
type ConstError string

func (err ConstError) Error() string { return string(err) }
