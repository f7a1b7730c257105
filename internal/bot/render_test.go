package bot_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fns-bill/internal/bot"
	"github.com/zombor/fns-bill/internal/fns"
)

var _ = Describe("RenderBill", func() {
	It("lists every record then the total", func() {
		bill := fns.NewBill()
		bill.Add(fns.NewRecord("Bread", 1, 4500))
		bill.Add(fns.NewRecord("Tea", 2, 175))

		Expect(bot.RenderBill(bill)).To(Equal(
			"<b>Bread</b> - x1 - <code>45.00</code>\n" +
				"<b>Tea</b> - x2 - <code>1.75</code>\n" +
				"\nTotal: <code>48.50</code>"))
	})

	It("escapes item names", func() {
		bill := fns.NewBill()
		bill.Add(fns.NewRecord("Salt <iodized> & fine", 1, 5))

		Expect(bot.RenderBill(bill)).To(HavePrefix("<b>Salt &lt;iodized&gt; &amp; fine</b> - x1 - <code>0.05</code>\n"))
	})

	It("renders an empty bill as a zero total", func() {
		Expect(bot.RenderBill(fns.NewBill())).To(Equal("\nTotal: <code>0.00</code>"))
	})
})
