package payment

import "fmt"

// Method is the closed set of supported payment methods.
type Method string

const (
	MethodCreditCard    Method = "credit_card"
	MethodDebitCard     Method = "debit_card"
	MethodBankTransfer  Method = "bank_transfer"
	MethodDigitalWallet Method = "digital_wallet"
)

// Methods lists all supported payment methods.
func Methods() []Method {
	return []Method{MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodDigitalWallet}
}

// IsValid returns true if the method is supported.
func (m Method) IsValid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodDigitalWallet:
		return true
	}
	return false
}

// String returns the string representation of the method.
func (m Method) String() string {
	return string(m)
}

// ParseMethod converts a string to a Method, returning an error if unsupported.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unsupported payment method: %s", s)
	}
	return m, nil
}
