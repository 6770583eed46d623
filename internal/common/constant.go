package common

// OperationIDHeaderName is the HTTP header used to tag outbound requests with
// the logical operation identifier, so side-channel captures can be correlated
// back to the operation that produced them.
const OperationIDHeaderName = "X-Drive-Operation-Id"
