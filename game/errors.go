package game

import "errors"

// Kind 拒绝原因的大类
type Kind int

const (
	KindValidation Kind = iota + 1
	KindInsufficient
	KindNotFound
	KindNotOwner
	KindIllegalState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficient:
		return "insufficient_resource"
	case KindNotFound:
		return "not_found"
	case KindNotOwner:
		return "not_owner"
	case KindIllegalState:
		return "illegal_state"
	default:
		return "unknown"
	}
}

// Code 具体的拒绝原因
type Code string

const (
	CodeInvalidQuantity   Code = "invalid_quantity"
	CodeInvalidPrice      Code = "invalid_price"
	CodeInvalidAmount     Code = "invalid_amount"
	CodeInvalidName       Code = "invalid_name"
	CodeInvalidMessage    Code = "invalid_message"
	CodeUnknownMaterial   Code = "unknown_material"
	CodeUnknownGood       Code = "unknown_good"
	CodeUnknownBusiness   Code = "unknown_business"
	CodeNoOp              Code = "no_op"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeInsufficientMats  Code = "insufficient_materials"
	CodeInsufficientGoods Code = "insufficient_goods"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeNothingToConsume  Code = "nothing_to_consume"
	CodeListingNotFound   Code = "listing_not_found"
	CodePlayerNotFound    Code = "player_not_found"
	CodeNotOwner          Code = "not_owner"
	CodeSelfTrade         Code = "self_trade"
	CodeNotJoined         Code = "not_joined"
	CodeAlreadyJoined     Code = "already_joined"
	CodePlayerDead        Code = "player_dead"
	CodeAdminForbidden    Code = "admin_forbidden"
	CodeNotAdmin          Code = "not_admin"
	CodeRoundRunning      Code = "round_running"
	CodeRoundNotRunning   Code = "round_not_running"
)

var codeKinds = map[Code]Kind{
	CodeInvalidQuantity:   KindValidation,
	CodeInvalidPrice:      KindValidation,
	CodeInvalidAmount:     KindValidation,
	CodeInvalidName:       KindValidation,
	CodeInvalidMessage:    KindValidation,
	CodeUnknownMaterial:   KindValidation,
	CodeUnknownGood:       KindValidation,
	CodeUnknownBusiness:   KindValidation,
	CodeNoOp:              KindValidation,
	CodeInsufficientFunds: KindInsufficient,
	CodeInsufficientMats:  KindInsufficient,
	CodeInsufficientGoods: KindInsufficient,
	CodeInsufficientStock: KindInsufficient,
	CodeNothingToConsume:  KindInsufficient,
	CodeListingNotFound:   KindNotFound,
	CodePlayerNotFound:    KindNotFound,
	CodeNotOwner:          KindNotOwner,
	CodeSelfTrade:         KindNotOwner,
	CodeNotJoined:         KindIllegalState,
	CodeAlreadyJoined:     KindIllegalState,
	CodePlayerDead:        KindIllegalState,
	CodeAdminForbidden:    KindIllegalState,
	CodeNotAdmin:          KindIllegalState,
	CodeRoundRunning:      KindIllegalState,
	CodeRoundNotRunning:   KindIllegalState,
}

// ActionError 被拒绝的动作；Msg 会原样通知给发起者
type ActionError struct {
	Code Code
	Msg  string
}

func newError(code Code, msg string) *ActionError { return &ActionError{Code: code, Msg: msg} }

func (e *ActionError) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return e.Msg
}

// Kind 返回所属大类
func (e *ActionError) Kind() Kind { return codeKinds[e.Code] }

// Is 按 Code 比较，使 errors.Is(err, ErrInsufficientFunds) 成立
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Code == e.Code
}

var (
	ErrInsufficientFunds     = &ActionError{Code: CodeInsufficientFunds}
	ErrInsufficientMaterials = &ActionError{Code: CodeInsufficientMats}
	ErrInsufficientGoods     = &ActionError{Code: CodeInsufficientGoods}
	ErrInsufficientStock     = &ActionError{Code: CodeInsufficientStock}
	ErrNothingToConsume      = &ActionError{Code: CodeNothingToConsume}
	ErrUnknownBusiness       = &ActionError{Code: CodeUnknownBusiness}
	ErrUnknownMaterial       = &ActionError{Code: CodeUnknownMaterial}
	ErrUnknownGood           = &ActionError{Code: CodeUnknownGood}
	ErrNoOp                  = &ActionError{Code: CodeNoOp}
	ErrInvalidQuantity       = &ActionError{Code: CodeInvalidQuantity}
	ErrInvalidPrice          = &ActionError{Code: CodeInvalidPrice}
	ErrInvalidAmount         = &ActionError{Code: CodeInvalidAmount}
	ErrInvalidName           = &ActionError{Code: CodeInvalidName}
	ErrInvalidMessage        = &ActionError{Code: CodeInvalidMessage}
	ErrListingNotFound       = &ActionError{Code: CodeListingNotFound}
	ErrPlayerNotFound        = &ActionError{Code: CodePlayerNotFound}
	ErrNotOwner              = &ActionError{Code: CodeNotOwner}
	ErrSelfTrade             = &ActionError{Code: CodeSelfTrade}
	ErrNotJoined             = &ActionError{Code: CodeNotJoined}
	ErrAlreadyJoined         = &ActionError{Code: CodeAlreadyJoined}
	ErrPlayerDead            = &ActionError{Code: CodePlayerDead}
	ErrAdminForbidden        = &ActionError{Code: CodeAdminForbidden}
	ErrNotAdmin              = &ActionError{Code: CodeNotAdmin}
	ErrRoundRunning          = &ActionError{Code: CodeRoundRunning}
	ErrRoundNotRunning       = &ActionError{Code: CodeRoundNotRunning}
)

// KindOf 返回错误大类；非 ActionError 返回 0
func KindOf(err error) Kind {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return 0
}

// CodeOf 返回拒绝原因，用作指标标签
func CodeOf(err error) Code {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
