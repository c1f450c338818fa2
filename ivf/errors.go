package ivf

import "fmt"

// ErrShortList indicates the quantizer ranked fewer lists than the index
// claims to have. This is a fatal IndexError: it means the index is
// misbuilt and the caller should abort rather than continue calibration
// or search with a partial ranking. FlatIndex.ScanList also returns it
// for a list id outside [0, NumLists), with Got set to listID+1.
type ErrShortList struct {
	Expected int
	Got      int
}

func (e *ErrShortList) Error() string {
	return fmt.Sprintf("ivf: quantizer ranked %d lists, want %d", e.Got, e.Expected)
}
