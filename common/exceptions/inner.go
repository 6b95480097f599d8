package exceptions

func Unwrap(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		unwrapped := u.Unwrap()
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}
	return err
}
