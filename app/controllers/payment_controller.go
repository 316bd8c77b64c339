package controllers

import (
	"net/http"

	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/ctx"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (c *PaymentController) Initiate(cx *ctx.Context) {
	var in services.InitiatePaymentInput
	if _, err := bindBody(cx, &in); err != nil {
		cx.Fail(apperr.NewPaymentInit(http.StatusBadRequest, "Missing required parameters").Wrap(err))
		return
	}
	res, err := c.payments.Initiate(cx.Context(), in)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, res)
}

func (c *PaymentController) Status(cx *ctx.Context) {
	res, err := c.payments.Status(cx.Context(), cx.Param("orderId"))
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, res)
}
