package store

import "fmt"

// Key layout:
//   drop:<dropID>:msg:<seq %020d>   message record (padded decimal sorts
//                                   lexicographically in seq order)
//   drop:<dropID>:seq               last allocated seq, decimal string
//
// The seq meta key only ever grows; deleting a message retires its seq and
// leaves a gap.

func msgKey(dropID string, seq int64) []byte {
	return []byte(fmt.Sprintf("drop:%s:msg:%020d", dropID, seq))
}

func msgPrefix(dropID string) []byte {
	return []byte(fmt.Sprintf("drop:%s:msg:", dropID))
}

func seqKey(dropID string) []byte {
	return []byte(fmt.Sprintf("drop:%s:seq", dropID))
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, for bounded iteration.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
