package service

import "github.com/getAlby/rgbhub.go/common"

// on-chain transfer edges, FAILED and SETTLED are terminal
var transferEdges = map[string][]string{
	common.TransferStatusWaitingCounterparty:  {common.TransferStatusWaitingConfirmations, common.TransferStatusFailed},
	common.TransferStatusWaitingConfirmations: {common.TransferStatusSettled, common.TransferStatusFailed},
}

var paymentEdges = map[string][]string{
	common.PaymentStatusPending: {common.PaymentStatusSuccess, common.PaymentStatusFailed},
}

func isTerminalTransfer(status string) bool {
	return status == common.TransferStatusSettled || status == common.TransferStatusFailed
}

func isTerminalPayment(status string) bool {
	return status == common.PaymentStatusSuccess || status == common.PaymentStatusFailed
}

// transferPath returns the statuses a transfer moves through to get from one
// status to another, excluding from. It returns nil when to is not reachable.
func transferPath(from, to string) []string {
	return path(transferEdges, from, to)
}

func paymentPath(from, to string) []string {
	return path(paymentEdges, from, to)
}

func path(edges map[string][]string, from, to string) []string {
	if from == to {
		return nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range edges[current] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			if next == to {
				result := []string{}
				for step := to; step != from; step = prev[step] {
					result = append([]string{step}, result...)
				}
				return result
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// mergeChannelStatus decides the status to store for a channel the node
// reports. A close requested locally is kept until the node stops listing
// the channel or reports it closing itself.
func mergeChannelStatus(local, remote string) string {
	switch local {
	case common.ChannelStatusClosing, common.ChannelStatusForceClosing:
		if remote == common.ChannelStatusOpen || remote == common.ChannelStatusOpening {
			return local
		}
		if remote == common.ChannelStatusClosing && local == common.ChannelStatusForceClosing {
			return local
		}
	case common.ChannelStatusClosed:
		return local
	}
	return remote
}
