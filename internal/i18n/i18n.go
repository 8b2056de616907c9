package i18n

import (
	"fmt"
	"strings"
)

// 语言标识
const (
	LocaleEN = "en-US"
	LocaleFR = "fr-FR"
)

var messages = map[string]map[string]string{
	LocaleEN: {
		"order.status.pending":   "pending",
		"order.status.confirmed": "confirmed",
		"order.status.shipped":   "shipped",
		"order.status.delivered": "delivered",
		"order.status.cancelled": "cancelled",

		"email.order_confirmation.subject": "Order %s confirmed",
		"email.order_confirmation.body":    "Thank you for your order!\n\nOrder number: %s\nTotal: %s %s\n\nWe will let you know as soon as it ships.",
		"email.order_status.subject":       "Order update: %s",
		"email.order_status.body":          "Your order %s is now %s.\nTotal: %s %s",
		"email.order_status.body_cancelled": "Your order %s has been cancelled.\nTotal: %s %s\n\nAny reserved stock and promotions have been released.",

		"error.bad_request":          "Invalid request",
		"error.unauthorized":         "Unauthorized",
		"error.forbidden":            "Forbidden",
		"error.internal":             "Internal server error",
		"error.too_many_requests":    "Too many requests",
		"error.jwt_secret_missing":   "Authentication is not configured",
		"error.auth_header_missing":  "Authorization header missing",
		"error.auth_header_invalid":  "Authorization header invalid",
		"error.token_invalid":        "Invalid or expired token",
		"error.login_too_many":       "Too many login attempts, retry in %d seconds",
		"error.rate_limited":         "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "Rate limiter unavailable",
		"error.invalid_reference":    "Invalid reference",
		"error.order_item_invalid":   "Invalid order item",
		"error.product_not_found":    "Product not found",
		"error.variant_not_found":    "Variant not found",
		"error.category_not_found":   "Category not found",
		"error.category_in_use":      "Category still has products",
		"error.order_not_found":      "Order not found",
		"error.promotion_not_found":  "Promotion not found",
		"error.user_not_found":       "User not found",
		"error.insufficient_stock":   "Insufficient stock",
		"error.promotion_rejected":   "Promotion code rejected",
		"error.order_forbidden":      "You do not have access to this order",
		"error.order_state_invalid":  "Order state does not allow this operation",
		"error.promotion_invalid":    "Invalid promotion",
		"error.product_invalid":      "Invalid product data",
		"error.slug_taken":           "Slug already in use",
		"error.promotion_code_taken": "Promotion code already exists",
		"error.email_taken":          "Email already registered",
		"error.invalid_credentials":  "Invalid email or password",
		"error.user_disabled":        "Account disabled",
		"error.user_id_invalid":      "Invalid user id",
		"error.user_id_type_invalid": "Invalid user id type",
		"error.order_create_failed":  "Failed to create order",
		"error.order_fetch_failed":   "Failed to fetch orders",
		"error.order_update_failed":  "Failed to update order",
		"error.product_fetch_failed": "Failed to fetch products",
		"error.promo_fetch_failed":   "Failed to fetch promotions",
	},
	LocaleFR: {
		"order.status.pending":   "en attente",
		"order.status.confirmed": "confirmée",
		"order.status.shipped":   "expédiée",
		"order.status.delivered": "livrée",
		"order.status.cancelled": "annulée",

		"email.order_confirmation.subject": "Commande %s confirmée",
		"email.order_confirmation.body":    "Merci pour votre commande !\n\nNuméro de commande : %s\nTotal : %s %s\n\nNous vous préviendrons dès son expédition.",
		"email.order_status.subject":       "Mise à jour de commande : %s",
		"email.order_status.body":          "Votre commande %s est maintenant %s.\nTotal : %s %s",
		"email.order_status.body_cancelled": "Votre commande %s a été annulée.\nTotal : %s %s\n\nLes stocks et promotions réservés ont été libérés.",

		"error.bad_request":          "Requête invalide",
		"error.unauthorized":         "Non autorisé",
		"error.forbidden":            "Accès refusé",
		"error.internal":             "Erreur interne du serveur",
		"error.too_many_requests":    "Trop de requêtes",
		"error.jwt_secret_missing":   "L'authentification n'est pas configurée",
		"error.auth_header_missing":  "En-tête d'autorisation manquant",
		"error.auth_header_invalid":  "En-tête d'autorisation invalide",
		"error.token_invalid":        "Jeton invalide ou expiré",
		"error.login_too_many":       "Trop de tentatives de connexion, réessayez dans %d secondes",
		"error.rate_limited":         "Trop de requêtes, réessayez dans %d secondes",
		"error.rate_limit_unavailable": "Limiteur de débit indisponible",
		"error.invalid_reference":    "Référence invalide",
		"error.order_item_invalid":   "Ligne de commande invalide",
		"error.product_not_found":    "Produit introuvable",
		"error.variant_not_found":    "Variante introuvable",
		"error.category_not_found":   "Catégorie introuvable",
		"error.category_in_use":      "La catégorie contient encore des produits",
		"error.order_not_found":      "Commande introuvable",
		"error.promotion_not_found":  "Promotion introuvable",
		"error.user_not_found":       "Utilisateur introuvable",
		"error.insufficient_stock":   "Stock insuffisant",
		"error.promotion_rejected":   "Code promotionnel refusé",
		"error.order_forbidden":      "Vous n'avez pas accès à cette commande",
		"error.order_state_invalid":  "L'état de la commande ne permet pas cette opération",
		"error.promotion_invalid":    "Promotion invalide",
		"error.product_invalid":      "Données produit invalides",
		"error.slug_taken":           "Slug déjà utilisé",
		"error.promotion_code_taken": "Ce code promotionnel existe déjà",
		"error.email_taken":          "Adresse e-mail déjà enregistrée",
		"error.invalid_credentials":  "E-mail ou mot de passe invalide",
		"error.user_disabled":        "Compte désactivé",
		"error.user_id_invalid":      "Identifiant utilisateur invalide",
		"error.user_id_type_invalid": "Type d'identifiant utilisateur invalide",
		"error.order_create_failed":  "Échec de la création de la commande",
		"error.order_fetch_failed":   "Échec de la récupération des commandes",
		"error.order_update_failed":  "Échec de la mise à jour de la commande",
		"error.product_fetch_failed": "Échec de la récupération des produits",
		"error.promo_fetch_failed":   "Échec de la récupération des promotions",
	},
}

// Normalize 将任意语言标识归一到受支持的语言，默认英文
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(l, "fr") {
		return LocaleFR
	}
	return LocaleEN
}

// T 查找文案，找不到时回退英文，再退回 key 本身
func T(locale, key string) string {
	locale = Normalize(locale)
	if msg, ok := messages[locale][key]; ok {
		return msg
	}
	if msg, ok := messages[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查找文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
