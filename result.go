package conann

// CalibrationResult is the only state AdaptiveSearch and Evaluator need
// at query time: a calibrated stopping threshold plus the regularization
// parameters it was calibrated against. It is a plain value type with no
// back-pointer into the score matrix or the index, so it outlives the
// Calibrate call that produced it and can be persisted/transmitted on its
// own (e.g. alongside an index snapshot).
type CalibrationResult struct {
	// Lamhat is lambda-hat, the calibrated stopping threshold in [0, 1].
	Lamhat float64

	// KReg is the regularized-cost free rank before the rank penalty
	// kicks in.
	KReg int

	// RegLambda is lambda_reg, the regularization strength chosen by
	// RegLambdaSelector on the tune split.
	RegLambda float64
}
