package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIndusIndParseUPIDebit(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	body := "INR 349.00 debited from A/C 50***8765 towards ZOMATO/UPI on 12-08-26. Avl BAL of INR 15,420.50. RRN: 823456789012"

	tx := p.Parse(body, "JM-INDUSB-S", time.Now())
	require.NotNil(t, tx)
	require.Equal(t, "IndusInd Bank", tx.Issuer)
	require.Equal(t, "349", tx.Amount.String())
	require.Equal(t, Debit, tx.Direction)
	require.Equal(t, "ZOMATO", tx.Merchant)
	require.Equal(t, "823456789012", tx.Reference)
	require.Equal(t, "8765", tx.AccountSuffix)
	require.NotNil(t, tx.Balance)
	require.Equal(t, "15420.5", tx.Balance.String())
	require.False(t, tx.IsFromCard)
}

func TestIndusIndParseCardSpend(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	body := "Rs. 1,250.00 spent on your IndusInd Bank Credit Card XX9012 at RELIANCE DIGITAL on 10-08-26"

	tx := p.Parse(body, "JM-INDUSB-S", time.Now())
	require.NotNil(t, tx)
	require.Equal(t, "1250", tx.Amount.String())
	require.Equal(t, Debit, tx.Direction)
	require.Equal(t, "RELIANCE DIGITAL", tx.Merchant)
	require.Equal(t, "9012", tx.AccountSuffix)
	require.True(t, tx.IsFromCard)
}

func TestIndusIndParseCreditFromVPA(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	body := "INR 5,000.00 credited to A/C 12***3456 from rahul@upi RRN: 100200300400"

	tx := p.Parse(body, "JM-INDUSB-S", time.Now())
	require.NotNil(t, tx)
	require.Equal(t, "5000", tx.Amount.String())
	require.Equal(t, Income, tx.Direction)
	require.Equal(t, "rahul", tx.Merchant)
	require.Equal(t, "3456", tx.AccountSuffix)
	require.Equal(t, "100200300400", tx.Reference)
}

func TestIndusIndACHDebitIsNotCardSpend(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	body := "INR 2,500.00 debited from A/c *XX 4567 towards LICPREMIUM via NACH on 05-08-26"

	tx := p.Parse(body, "JM-INDUSB-S", time.Now())
	require.NotNil(t, tx)
	require.Equal(t, "LICPREMIUM", tx.Merchant)
	require.Equal(t, "4567", tx.AccountSuffix)
	require.False(t, tx.IsFromCard)
}

func TestIndusIndRejectsNonTransactional(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	for _, body := range []string{
		"Net Interest of INR 1,234.00 credited for Deposit No 123456789",
		"Your OTP for IndusInd NetBanking is 918273. Do not share it.",
		"rahul@upi has requested Rs. 500 from you. Approve in the app.",
	} {
		require.Nil(t, p.Parse(body, "JM-INDUSB-S", time.Now()), "body: %s", body)
	}
}

func TestIndusIndCanHandleSenderVariants(t *testing.T) {
	t.Parallel()

	p := NewIndusInd()
	for _, sender := range []string{"JM-INDUSB-S", "JM-INDUSB", "INDUSB", "JK-INDUSIND"} {
		require.True(t, p.CanHandle(sender), "sender: %s", sender)
	}
	require.False(t, p.CanHandle("AD-HDFCBK-S"))
}
